package explainer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/skatelens-cli/internal/ai"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

type stubRuntime struct {
	reqs []ai.GenerateRequest
	resp *ai.GenerateResponse
	err  error
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.reqs = append(s.reqs, req)
	return s.resp, s.err
}

func reply(text string) *ai.GenerateResponse {
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: text}}}}
}

func rows(n int) []enrich.RowSummary {
	out := make([]enrich.RowSummary, n)
	for i := range out {
		out[i] = enrich.RowSummary{
			First: "jane", Last: fmt.Sprintf("doe%d", i), Country: "Canada",
			Rank: fmt.Sprint(i + 1), Result: "41.5", Round: "Final", Heat: "A",
		}
	}
	return out
}

func TestBuildPrompt_WithoutTrigger(t *testing.T) {
	assert.Equal(t, "who won?", BuildPrompt("who won?", rows(3), DefaultTrigger, 10))
}

func TestBuildPrompt_WithTrigger(t *testing.T) {
	q := "Please EXPLAIN RESULTS for the final"
	got := BuildPrompt(q, rows(12), DefaultTrigger, 10)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "jane doe0 from Canada ranked 1 with 41.5 seconds in Final (A).", lines[0])
	assert.Equal(t, "jane doe9 from Canada ranked 10 with 41.5 seconds in Final (A).", lines[9])
	assert.Equal(t, "", lines[10])
	assert.Equal(t, q, lines[11])
}

func TestBuildPrompt_CustomTriggerAndLimit(t *testing.T) {
	got := BuildPrompt("summarize heats please", rows(5), "summarize", 2)
	assert.Equal(t, 2, strings.Count(got, "seconds in"))
	assert.Equal(t, "explain results", BuildPrompt("explain results", nil, DefaultTrigger, 10))
}

func TestAsk_SendsSystemAndUser(t *testing.T) {
	rt := &stubRuntime{resp: reply("  Jane won.  ")}
	b := &Bridge{Runtime: rt}

	out := b.Ask(context.Background(), "explain results", rows(1))
	assert.Equal(t, "Jane won.", out)

	require.Len(t, rt.reqs, 1)
	req := rt.reqs[0]
	assert.Equal(t, ai.DefaultModel, req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.True(t, strings.HasPrefix(req.Messages[1].Content, "jane doe0 from Canada"))
}

func TestAsk_ErrorsBecomeText(t *testing.T) {
	rt := &stubRuntime{err: errors.New("dial tcp: connection refused")}
	b := &Bridge{Runtime: rt, Model: "qwen-max"}
	assert.Equal(t, "Error: dial tcp: connection refused", b.Ask(context.Background(), "hi", nil))
	assert.Equal(t, "qwen-max", rt.reqs[0].Model)

	empty := &Bridge{Runtime: &stubRuntime{resp: &ai.GenerateResponse{}}}
	out := empty.Ask(context.Background(), "hi", nil)
	assert.Equal(t, "Error: "+ai.ErrEmptyResponse.Error(), out)

	var none *Bridge
	assert.True(t, strings.HasPrefix(none.Ask(context.Background(), "hi", nil), "Error: "))
	assert.True(t, strings.HasPrefix((&Bridge{Runtime: rt}).Ask(context.Background(), "  ", nil), "Error: "))
}

func TestExplain_TruncatesLongPrompt(t *testing.T) {
	rt := &stubRuntime{resp: reply("ok")}
	b := &Bridge{Runtime: rt, MaxPromptTokens: 5}
	_, err := b.Explain(context.Background(), strings.Repeat("why ", 50), nil)
	require.NoError(t, err)
	assert.Len(t, []rune(rt.reqs[0].Messages[1].Content), 20)
}

func TestHasTrigger(t *testing.T) {
	assert.True(t, HasTrigger("Can you Explain Results?", "explain results"))
	assert.False(t, HasTrigger("explain the results", "explain results"))
	assert.False(t, HasTrigger("anything", "  "))
}
