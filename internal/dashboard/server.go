package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/ai"
	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
	"github.com/KaramelBytes/skatelens-cli/internal/explainer"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
	"github.com/KaramelBytes/skatelens-cli/internal/metrics"
)

// ServerOptions tunes the HTTP dashboard.
type ServerOptions struct {
	TopN        int
	SummaryRows int
	// ExplainTimeout bounds one explainer round trip; 0 leaves it to the
	// runtime's HTTP timeout.
	ExplainTimeout time.Duration
}

// Server exposes one Session over HTTP. Every read recomputes the view from
// disk; the mutex only serialises access to the session itself.
type Server struct {
	mu       sync.Mutex
	session  *Session
	bridge   *explainer.Bridge
	metrics  *metrics.Manager
	opts     ServerOptions
	validate *validator.Validate
	logger   *zap.Logger
	router   chi.Router
}

// NewServer wires routes for session. bridge may be nil, in which case the
// ask endpoints answer 503.
func NewServer(session *Session, bridge *explainer.Bridge, m *metrics.Manager, opts ServerOptions) *Server {
	if m == nil {
		m = metrics.NewManager()
	}
	s := &Server{
		session:  session,
		bridge:   bridge,
		metrics:  m,
		opts:     opts,
		validate: validator.New(),
		logger:   log.Named("dashboard").With(zap.String("session", session.ID.String())),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/events", s.handleEvents)
		r.Post("/select", s.handleSelect)
		r.Get("/view", s.handleView)
		r.Get("/tabs/{tab}", s.handleTab)
		r.Post("/ask", s.handleAsk)
		r.Post("/explain", s.handleExplain)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type selectRequest struct {
	Event string `json:"event" validate:"required"`
}

type askMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type askRequest struct {
	Messages []askMessage `json:"messages" validate:"required,min=1,dive"`
	Model    string       `json:"model"`
}

type explainRequest struct {
	Question string `json:"question" validate:"required"`
}

type askResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "session": s.session.ID.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	events, err := s.session.Events()
	selected := s.session.Selected.Name
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []dataset.Folder{}
	}
	render.JSON(w, r, map[string]any{"events": events, "selected": selected})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.session.Select(req.Event)
	s.recordLoad(err)
	resp := map[string]any{"event": s.session.Selected, "warnings": warningText(s.session.Warnings)}
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.freshView(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, RenderView(v))
		return
	}
	render.JSON(w, r, v)
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "tab")
	v, err := s.freshView(r)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	tab, ok := v.Tab(key)
	if !ok {
		s.fail(w, r, http.StatusNotFound, fmt.Errorf("unknown tab %q (available: %s)", key, strings.Join(TabOrder, ", ")))
		return
	}
	if wantsMarkdown(r) {
		writeMarkdown(w, RenderTab(tab))
		return
	}
	render.JSON(w, r, tab)
}

// handleAsk forwards raw chat turns, like a thin completion proxy.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil || s.bridge.Runtime == nil {
		s.fail(w, r, http.StatusServiceUnavailable, errors.New("explainer is not configured"))
		return
	}
	var req askRequest
	if !s.decode(w, r, &req) {
		return
	}
	model := req.Model
	if model == "" {
		model = s.bridge.Model
	}
	if model == "" {
		model = ai.DefaultModel
	}
	msgs := make([]ai.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ai.Message{Role: m.Role, Content: m.Content}
	}

	ctx, cancel := s.explainContext(r.Context())
	defer cancel()
	start := time.Now()
	resp, err := s.bridge.Runtime.Generate(ctx, ai.GenerateRequest{Model: model, Messages: msgs})
	var reply string
	if err == nil {
		reply, err = resp.Reply()
	}
	s.metrics.RecordExplainer(time.Since(start), err)
	if err != nil {
		s.logger.Warn("ask failed", zap.Error(err))
		s.fail(w, r, http.StatusBadGateway, err)
		return
	}
	render.JSON(w, r, askResponse{Response: reply})
}

// handleExplain answers a question about the selected event through the
// bridge. Explainer failures are part of the response text, not an HTTP error.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil || s.bridge.Runtime == nil {
		s.fail(w, r, http.StatusServiceUnavailable, errors.New("explainer is not configured"))
		return
	}
	var req explainRequest
	if !s.decode(w, r, &req) {
		return
	}
	var rows []enrich.RowSummary
	s.mu.Lock()
	if s.session.HasSelection() {
		err := s.session.Reload()
		s.recordLoad(err)
		if err == nil {
			ds := s.session.Datasets
			rows = enrich.Summaries(ds.Get(dataset.HeatCompetitors), ds.Get(dataset.Competitors), s.summaryRows())
		}
	}
	s.mu.Unlock()

	ctx, cancel := s.explainContext(r.Context())
	defer cancel()
	start := time.Now()
	reply, err := s.bridge.Explain(ctx, req.Question, rows)
	s.metrics.RecordExplainer(time.Since(start), err)
	if err != nil {
		s.logger.Warn("explain failed", zap.Error(err))
		reply = "Error: " + err.Error()
	}
	render.JSON(w, r, askResponse{Response: reply})
}

// freshView reloads the selected folder from disk and rebuilds the view
// with the request's filters.
func (s *Server) freshView(r *http.Request) (*View, error) {
	f := Filters{
		Country: r.URL.Query().Get("country"),
		Athlete: r.URL.Query().Get("athlete"),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.HasSelection() {
		return nil, ErrNoSelection
	}
	err := s.session.Reload()
	s.recordLoad(err)
	if err != nil {
		return nil, err
	}
	return BuildWith(s.session, f, Options{TopN: s.opts.TopN})
}

// recordLoad must be called with s.mu held.
func (s *Server) recordLoad(err error) {
	if err != nil {
		s.metrics.RecordLoad(err, 0, nil)
		return
	}
	s.metrics.RecordLoad(nil, len(s.session.Warnings), s.session.TableRows())
}

func (s *Server) summaryRows() int {
	if s.opts.SummaryRows > 0 {
		return s.opts.SummaryRows
	}
	return explainer.DefaultMaxRows
}

func (s *Server) explainContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ExplainTimeout > 0 {
		return context.WithTimeout(parent, s.opts.ExplainTimeout)
	}
	return context.WithCancel(parent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownEvent), errors.Is(err, ErrNoEvents):
		return http.StatusNotFound
	case errors.Is(err, ErrNoSelection):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func wantsMarkdown(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "markdown")
}

func writeMarkdown(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func warningText(ws []dataset.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
