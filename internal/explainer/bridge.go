// Package explainer turns free-text questions about an event into a single
// chat request and returns the model's answer as display text.
package explainer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/ai"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
	"github.com/KaramelBytes/skatelens-cli/internal/utils"
)

const (
	DefaultSystemPrompt = "You are a helpful sports analytics assistant who explains speed skating results clearly and engagingly."
	DefaultTrigger      = "explain results"
	DefaultMaxRows      = 10
)

// Bridge forwards questions to a Runtime. The zero value of every field
// except Runtime falls back to a default.
type Bridge struct {
	Runtime      ai.Runtime
	Model        string
	SystemPrompt string
	Trigger      string
	MaxRows      int
	// MaxPromptTokens caps the user message; 0 means no cap.
	MaxPromptTokens int
}

// Ask sends question, with a row summary when it contains the trigger
// phrase, and returns the trimmed reply. Failures come back as
// "Error: <reason>" so callers can display the result as is.
func (b *Bridge) Ask(ctx context.Context, question string, rows []enrich.RowSummary) string {
	reply, err := b.Explain(ctx, question, rows)
	if err != nil {
		log.Named("explainer").Warn("explainer request failed", zap.Error(err))
		return "Error: " + err.Error()
	}
	return reply
}

// Explain is Ask with the error returned instead of folded into the text.
func (b *Bridge) Explain(ctx context.Context, question string, rows []enrich.RowSummary) (string, error) {
	if b == nil || b.Runtime == nil {
		return "", fmt.Errorf("no explainer runtime configured")
	}
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question is empty")
	}
	req := ai.GenerateRequest{
		Model:    b.model(),
		Messages: Messages(b.systemPrompt(), b.Prompt(question, rows)),
	}
	resp, err := b.Runtime.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Reply()
}

// Prompt is the user message Explain would send for question and rows,
// truncated to MaxPromptTokens.
func (b *Bridge) Prompt(question string, rows []enrich.RowSummary) string {
	prompt := BuildPrompt(question, rows, b.trigger(), b.maxRows())
	if b.MaxPromptTokens > 0 && utils.CountTokens(prompt) > b.MaxPromptTokens {
		log.Named("explainer").Debug("truncating prompt",
			zap.Int("estimated_tokens", utils.CountTokens(prompt)), zap.Int("limit", b.MaxPromptTokens))
		prompt = utils.TruncateToTokenLimit(prompt, b.MaxPromptTokens)
	}
	return prompt
}

// Messages builds the ordered system+user turns for one request.
func Messages(system, user string) []ai.Message {
	return []ai.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
}

// HasTrigger reports whether question contains trigger, ignoring case.
func HasTrigger(question, trigger string) bool {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return false
	}
	return strings.Contains(strings.ToLower(question), strings.ToLower(trigger))
}

// BuildPrompt returns the user message: the bare question, or when the
// trigger is present, one sentence per row (at most limit) followed by a
// blank line and the question.
func BuildPrompt(question string, rows []enrich.RowSummary, trigger string, limit int) string {
	if !HasTrigger(question, trigger) || len(rows) == 0 {
		return question
	}
	if limit <= 0 {
		limit = DefaultMaxRows
	}
	var sb strings.Builder
	for _, r := range rows[:min(limit, len(rows))] {
		sb.WriteString(r.Sentence())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(question)
	return sb.String()
}

func (b *Bridge) model() string {
	if strings.TrimSpace(b.Model) == "" {
		return ai.DefaultModel
	}
	return b.Model
}

func (b *Bridge) systemPrompt() string {
	if strings.TrimSpace(b.SystemPrompt) == "" {
		return DefaultSystemPrompt
	}
	return b.SystemPrompt
}

func (b *Bridge) trigger() string {
	if strings.TrimSpace(b.Trigger) == "" {
		return DefaultTrigger
	}
	return b.Trigger
}

func (b *Bridge) maxRows() int {
	if b.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return b.MaxRows
}
