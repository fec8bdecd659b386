package insights

import (
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

// Filters narrows results to one country and/or one athlete. Matching is
// case-insensitive and exact; an empty field matches everything.
type Filters struct {
	Country string `json:"country,omitempty"`
	Athlete string `json:"athlete,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return strings.TrimSpace(f.Country) == "" && strings.TrimSpace(f.Athlete) == ""
}

// Match reports whether a row with the given country and athlete passes.
func (f Filters) Match(country, athlete string) bool {
	return matches(f.Country, country) && matches(f.Athlete, athlete)
}

// Results applies the filters to typed heat results.
func (f Filters) Results(rs []enrich.HeatResult) []enrich.HeatResult {
	if f.Empty() {
		return rs
	}
	return lo.Filter(rs, func(r enrich.HeatResult, _ int) bool { return f.Match(r.Country, r.Athlete) })
}

// Table applies the filters to a prepared table carrying Country and
// Athlete columns. A filter on a column the table lacks removes every row.
func (f Filters) Table(t *dataset.Table) *dataset.Table {
	if t == nil || f.Empty() {
		return t
	}
	return t.Filter(func(i int) bool {
		return f.Match(t.Value(i, enrich.ColCountryName), t.Value(i, enrich.ColAthlete))
	})
}

// FilterByCountry keeps rows whose Country equals country.
func FilterByCountry(rs []enrich.HeatResult, country string) []enrich.HeatResult {
	return Filters{Country: country}.Results(rs)
}

// FilterByAthlete keeps rows whose Athlete equals athlete.
func FilterByAthlete(rs []enrich.HeatResult, athlete string) []enrich.HeatResult {
	return Filters{Athlete: athlete}.Results(rs)
}

// Countries lists distinct non-empty countries, sorted.
func Countries(rs []enrich.HeatResult) []string {
	return options(rs, func(r enrich.HeatResult) string { return r.Country })
}

// Athletes lists distinct non-empty athlete names, sorted.
func Athletes(rs []enrich.HeatResult) []string {
	return options(rs, func(r enrich.HeatResult) string { return r.Athlete })
}

func options(rs []enrich.HeatResult, field func(enrich.HeatResult) string) []string {
	vals := lo.Uniq(lo.FilterMap(rs, func(r enrich.HeatResult, _ int) (string, bool) {
		v := strings.TrimSpace(field(r))
		return v, v != ""
	}))
	slices.Sort(vals)
	return vals
}

func matches(want, got string) bool {
	want = strings.TrimSpace(want)
	return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
}
