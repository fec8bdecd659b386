package enrich

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

// RowSummary is one heat entry as described to the explainer.
type RowSummary struct {
	First   string `json:"first_name"`
	Last    string `json:"last_name"`
	Country string `json:"country"`
	Rank    string `json:"rank"`
	Result  string `json:"result"`
	Round   string `json:"round"`
	Heat    string `json:"heat"`
}

// Sentence renders the row as a single line of prose.
func (r RowSummary) Sentence() string {
	name := strings.TrimSpace(r.First + " " + r.Last)
	return fmt.Sprintf("%s from %s ranked %s with %s seconds in %s (%s).",
		name, r.Country, r.Rank, r.Result, r.Round, r.Heat)
}

// Summaries returns up to n heat entries joined with the roster, in input
// order. Names and country keep their roster spelling.
func Summaries(results, roster *dataset.Table, n int) []RowSummary {
	if results == nil || n <= 0 {
		return nil
	}
	t := Join(results, roster)
	_, joined := ResolveJoinKey(results, roster, JoinKeyCandidates)
	lim := min(n, t.Len())
	out := make([]RowSummary, 0, lim)
	for i := 0; i < lim; i++ {
		s := RowSummary{
			Country: t.Value(i, ColCountryName),
			Rank:    t.Value(i, "final_rank"),
			Result:  t.Value(i, "final_result"),
			Round:   t.Value(i, "round_name"),
			Heat:    t.Value(i, "heat_name"),
		}
		if joined {
			s.First = t.Value(i, ColFirstName)
			s.Last = t.Value(i, ColLastName)
		} else {
			s.First = UnknownAthlete
		}
		out = append(out, s)
	}
	return out
}
