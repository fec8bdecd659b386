package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/skatelens-cli/internal/ai"
	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/skatelens-cli/internal/explainer"
	"github.com/KaramelBytes/skatelens-cli/internal/utils"
)

// newRuntime builds the explainer transport from cfg, with an optional
// provider override.
func newRuntime(providerFlag string) (ai.Runtime, string, error) {
	provider := strings.ToLower(strings.TrimSpace(providerFlag))
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:    cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Host:        cfg.OllamaHost,
	}
	rt, err := ai.NewRuntime(provider, rc)
	if err != nil {
		return nil, provider, err
	}
	return rt, provider, nil
}

// newBridge wires an explainer over the configured runtime.
func newBridge(providerFlag, modelFlag string) (*explainer.Bridge, error) {
	rt, _, err := newRuntime(providerFlag)
	if err != nil {
		return nil, err
	}
	model := modelFlag
	if model == "" {
		model = cfg.DefaultModel
	}
	return &explainer.Bridge{
		Runtime:         rt,
		Model:           model,
		SystemPrompt:    cfg.SystemPrompt,
		Trigger:         cfg.TriggerPhrase,
		MaxRows:         cfg.SummaryRows,
		MaxPromptTokens: cfg.MaxPromptTokens,
	}, nil
}

// openEvent starts a session over the data root and selects event.
func openEvent(event string) (*dashboard.Session, error) {
	if strings.TrimSpace(event) == "" {
		return nil, fmt.Errorf("--event is required")
	}
	s := dashboard.NewSession(cfg.DataRoot)
	if err := s.Select(event); err != nil {
		return nil, err
	}
	return s, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
