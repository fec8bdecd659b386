package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func testServerSequence(t *testing.T, statuses []int, headers []http.Header, bodyOK any) *ipv4Server {
	t.Helper()
	var idx int32
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		st := statuses[i]
		if headers != nil && i < len(headers) && headers[i] != nil {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		if st >= 200 && st < 300 {
			w.WriteHeader(st)
			_ = json.NewEncoder(w).Encode(bodyOK)
			return
		}
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
}

func okResponse(content string) GenerateResponse {
	return GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}}
}

func hiRequest() GenerateRequest {
	return GenerateRequest{Model: "qwen-plus", Messages: []Message{{Role: "user", Content: "hi"}}}
}

func TestGenerateRetriesOn429(t *testing.T) {
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, okResponse("ok"))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second, RetryMax: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, hiRequest())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got, _ := resp.Reply(); got != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerateSingleAttemptByDefault(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "overloaded"}})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second})
	_, err := c.Generate(context.Background(), hiRequest())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	srv := testServerSequence(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, okResponse("ok"))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 5 * time.Second, RetryMax: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.Generate(ctx, hiRequest()); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL, HTTPTimeout: 2 * time.Second})
	_, err := c.Generate(context.Background(), hiRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	var bre *BadRequestError
	if !errors.As(err, &bre) {
		t.Fatalf("expected BadRequestError, got %T", err)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestAuthErrorClassified(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "InvalidApiKey", "message": "Invalid API-key provided."})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "wrong", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), hiRequest())
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if ae.Code != "InvalidApiKey" {
		t.Fatalf("expected flat error code to be decoded, got %q", ae.Code)
	}
}

func TestGenerateZeroChoicesIsError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), hiRequest())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), hiRequest())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGenerateSendsBearerAndMessages(t *testing.T) {
	var got GenerateRequest
	var auth string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(okResponse("  spaced reply \n"))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	req := GenerateRequest{Model: "qwen-plus", Messages: []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}}}
	resp, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Model != "qwen-plus" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if reply, _ := resp.Reply(); reply != "spaced reply" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}
}

func TestGenerateValidation(t *testing.T) {
	if _, err := NewClient(ClientOptions{}).Generate(context.Background(), hiRequest()); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	c := NewClient(ClientOptions{APIKey: "k"})
	if _, err := c.Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: "user", Content: "x"}}}); !errors.Is(err, ErrEmptyModel) {
		t.Fatalf("expected ErrEmptyModel, got %v", err)
	}
	if _, err := c.Generate(context.Background(), GenerateRequest{Model: "m"}); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", c.BaseURL())
	}
}

func TestReplyEmpty(t *testing.T) {
	var nilResp *GenerateResponse
	if _, err := nilResp.Reply(); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("nil response: %v", err)
	}
	blank := okResponse("   ")
	if _, err := blank.Reply(); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("blank content: %v", err)
	}
}

func TestNewRuntime(t *testing.T) {
	rt, err := NewRuntime("DashScope", RuntimeConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if _, ok := rt.(*Client); !ok {
		t.Fatalf("expected *Client, got %T", rt)
	}
	rt, err = NewRuntime(ProviderOllama, RuntimeConfig{})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if _, ok := rt.(*OllamaClient); !ok {
		t.Fatalf("expected *OllamaClient, got %T", rt)
	}
	if _, err := NewRuntime("nope", RuntimeConfig{}); err == nil || !strings.Contains(err.Error(), "dashscope") {
		t.Fatalf("expected unknown provider error listing providers, got %v", err)
	}
}
