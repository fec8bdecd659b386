// Package insights computes read-only aggregates over prepared heat results.
package insights

import (
	"cmp"
	"slices"
	"strings"

	"github.com/aarondl/opt/null"
	"github.com/samber/lo"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

// DefaultTopN is the size of the fastest-times leaderboard.
const DefaultTopN = 10

// RoundStat aggregates one round's result times.
type RoundStat struct {
	Round string            `json:"round"`
	Mean  null.Val[float64] `json:"mean"`
	Best  null.Val[float64] `json:"best"`
	Heats int               `json:"heats"`
}

// CountryRank is one row of the per-country leaderboard.
type CountryRank struct {
	Country      string  `json:"country"`
	MeanRank     float64 `json:"mean_rank"`
	Participants int     `json:"participants"`
}

// Counts holds distinct entity counts for an event.
type Counts struct {
	Competitors int `json:"competitors"`
	Heats       int `json:"heats"`
	Rounds      int `json:"rounds"`
}

// RoundStats groups results by round in first-appearance order. Absent
// result times are skipped for Mean and Best; a round with none keeps both
// absent.
func RoundStats(rs []enrich.HeatResult) []RoundStat {
	groups := lo.GroupBy(rs, func(r enrich.HeatResult) string { return r.Round })
	order := lo.Uniq(lo.Map(rs, func(r enrich.HeatResult, _ int) string { return r.Round }))

	out := make([]RoundStat, 0, len(order))
	for _, round := range order {
		g := groups[round]
		st := RoundStat{
			Round: round,
			Heats: len(lo.Uniq(lo.FilterMap(g, func(r enrich.HeatResult, _ int) (string, bool) {
				return r.Heat, r.Heat != ""
			}))),
		}
		times := numeric(g, func(r enrich.HeatResult) null.Val[float64] { return r.Result })
		if len(times) > 0 {
			st.Mean = null.From(lo.Sum(times) / float64(len(times)))
			st.Best = null.From(lo.Min(times))
		}
		out = append(out, st)
	}
	return out
}

// Winner returns the row with the smallest result time. Ties go to the
// earliest row. ok is false when no row has a numeric result.
func Winner(rs []enrich.HeatResult) (enrich.HeatResult, bool) {
	timed := withResult(rs)
	if len(timed) == 0 {
		return enrich.HeatResult{}, false
	}
	return lo.MinBy(timed, func(a, b enrich.HeatResult) bool {
		return a.Result.GetOrZero() < b.Result.GetOrZero()
	}), true
}

// TopFastest returns up to n rows with a numeric result, fastest first.
// Equal times keep input order. n <= 0 uses DefaultTopN.
func TopFastest(rs []enrich.HeatResult, n int) []enrich.HeatResult {
	if n <= 0 {
		n = DefaultTopN
	}
	timed := withResult(rs)
	slices.SortStableFunc(timed, func(a, b enrich.HeatResult) int {
		return cmp.Compare(a.Result.GetOrZero(), b.Result.GetOrZero())
	})
	return timed[:min(n, len(timed))]
}

// CountryLeaderboard averages rank per country, best mean first. Rows
// without a numeric rank count toward neither the mean nor Participants.
func CountryLeaderboard(rs []enrich.HeatResult) []CountryRank {
	ranked := lo.Filter(rs, func(r enrich.HeatResult, _ int) bool { return r.Rank.IsValue() })
	groups := lo.GroupBy(ranked, func(r enrich.HeatResult) string { return r.Country })

	out := make([]CountryRank, 0, len(groups))
	for country, g := range groups {
		ranks := numeric(g, func(r enrich.HeatResult) null.Val[float64] { return r.Rank })
		out = append(out, CountryRank{
			Country:      country,
			MeanRank:     lo.Sum(ranks) / float64(len(ranks)),
			Participants: len(ranks),
		})
	}
	slices.SortFunc(out, func(a, b CountryRank) int {
		if c := cmp.Compare(a.MeanRank, b.MeanRank); c != 0 {
			return c
		}
		return strings.Compare(a.Country, b.Country)
	})
	return out
}

// CountDistinct reports roster size and distinct heat and round names.
// Blank names are not counted.
func CountDistinct(roster *dataset.Table, rs []enrich.HeatResult) Counts {
	c := Counts{}
	if roster != nil {
		c.Competitors = roster.Len()
	}
	c.Heats = len(lo.Uniq(lo.FilterMap(rs, func(r enrich.HeatResult, _ int) (string, bool) {
		return r.Heat, r.Heat != ""
	})))
	c.Rounds = len(lo.Uniq(lo.FilterMap(rs, func(r enrich.HeatResult, _ int) (string, bool) {
		return r.Round, r.Round != ""
	})))
	return c
}

func withResult(rs []enrich.HeatResult) []enrich.HeatResult {
	return lo.Filter(rs, func(r enrich.HeatResult, _ int) bool { return r.Result.IsValue() })
}

func numeric(rs []enrich.HeatResult, field func(enrich.HeatResult) null.Val[float64]) []float64 {
	return lo.FilterMap(rs, func(r enrich.HeatResult, _ int) (float64, bool) {
		return field(r).Get()
	})
}
