package insights

import (
	"fmt"
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

// Report bundles every aggregate shown on the Insights tab.
type Report struct {
	Counts    Counts              `json:"counts"`
	Winner    *enrich.HeatResult  `json:"winner,omitempty"`
	Rounds    []RoundStat         `json:"rounds"`
	Fastest   []enrich.HeatResult `json:"fastest"`
	Countries []CountryRank       `json:"countries"`
	TopN      int                 `json:"top_n"`
}

// Compute builds a Report from prepared heat results and the roster.
func Compute(roster *dataset.Table, rs []enrich.HeatResult, topN int) *Report {
	if topN <= 0 {
		topN = DefaultTopN
	}
	r := &Report{
		Counts:    CountDistinct(roster, rs),
		Rounds:    RoundStats(rs),
		Fastest:   TopFastest(rs, topN),
		Countries: CountryLeaderboard(rs),
		TopN:      topN,
	}
	if w, ok := Winner(rs); ok {
		r.Winner = &w
	}
	return r
}

// Markdown renders the report in bracketed sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[INSIGHTS]\n")
	b.WriteString(fmt.Sprintf("Competitors: %d\n", r.Counts.Competitors))
	b.WriteString(fmt.Sprintf("Heats: %d\n", r.Counts.Heats))
	b.WriteString(fmt.Sprintf("Rounds: %d\n", r.Counts.Rounds))
	if r.Winner != nil {
		b.WriteString(fmt.Sprintf("Winner: %s (%s) with %s s in %s\n",
			orDash(r.Winner.Athlete), r.Winner.Country, seconds(r.Winner.Result), r.Winner.Round))
	} else {
		b.WriteString("Winner: none (no numeric results)\n")
	}

	b.WriteString("\n[PER-ROUND]\n")
	if len(r.Rounds) == 0 {
		b.WriteString("(no rounds)\n")
	}
	for _, s := range r.Rounds {
		b.WriteString(fmt.Sprintf("- %s: mean %s s, best %s s, heats %d\n",
			orDash(s.Round), seconds(s.Mean), seconds(s.Best), s.Heats))
	}

	b.WriteString(fmt.Sprintf("\n[TOP %d FASTEST]\n", r.TopN))
	if len(r.Fastest) == 0 {
		b.WriteString("(no numeric results)\n")
	}
	for i, h := range r.Fastest {
		b.WriteString(fmt.Sprintf("%d. %s (%s) %s s, %s %s\n",
			i+1, orDash(h.Athlete), h.Country, seconds(h.Result), h.Round, h.Heat))
	}

	b.WriteString("\n[COUNTRY LEADERBOARD]\n")
	if len(r.Countries) == 0 {
		b.WriteString("(no ranked results)\n")
	}
	for _, c := range r.Countries {
		b.WriteString(fmt.Sprintf("- %s: mean rank %.2f (n=%d)\n", c.Country, c.MeanRank, c.Participants))
	}
	return b.String()
}

func seconds(v null.Val[float64]) string {
	f, ok := v.Get()
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%.3f", f)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
