package insights

import (
	"strings"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

func hr(round, heat, athlete, country, rank, result string) enrich.HeatResult {
	return enrich.HeatResult{
		Round:   round,
		Heat:    heat,
		Athlete: athlete,
		Country: country,
		Rank:    enrich.ParseNumber(rank),
		Result:  enrich.ParseNumber(result),
	}
}

// three skaters, five entries, two without a numeric time
func sample() ([]enrich.HeatResult, *dataset.Table) {
	roster := dataset.NewTable("competitors", "id", "first_name", "last_name")
	roster.AppendRow("1", "ada", "lee")
	roster.AppendRow("2", "bo", "kim")
	roster.AppendRow("3", "cy", "ng")
	rs := []enrich.HeatResult{
		hr("Heats", "H1", "Ada LEE", "A", "1", "42.100"),
		hr("Heats", "H2", "Bo KIM", "B", "2", "DQ"),
		hr("Heats", "H2", "Cy NG", "A", "3", "41.900"),
		hr("Final", "F", "Ada LEE", "A", "1", ""),
		hr("Final", "F", "Bo KIM", "B", "2", "41.950"),
	}
	return rs, roster
}

func TestTopFastestAndWinner(t *testing.T) {
	rs, _ := sample()
	top := TopFastest(rs, 10)
	require.Len(t, top, 3)
	assert.Equal(t, "Cy NG", top[0].Athlete)
	assert.Equal(t, "Bo KIM", top[1].Athlete)
	assert.Equal(t, "Ada LEE", top[2].Athlete)

	w, ok := Winner(rs)
	require.True(t, ok)
	assert.Equal(t, top[0], w)
	assert.InDelta(t, 41.9, w.Result.GetOrZero(), 1e-9)

	assert.Len(t, TopFastest(rs, 2), 2)
	assert.Len(t, TopFastest(rs, 0), 3)
}

func TestWinner_TieGoesToFirst(t *testing.T) {
	rs := []enrich.HeatResult{
		hr("R", "1", "X", "A", "1", "40.5"),
		hr("R", "2", "Y", "B", "1", "40.5"),
	}
	w, ok := Winner(rs)
	require.True(t, ok)
	assert.Equal(t, "X", w.Athlete)
	assert.Equal(t, "X", TopFastest(rs, 1)[0].Athlete)
}

func TestWinner_NoNumericResults(t *testing.T) {
	_, ok := Winner([]enrich.HeatResult{hr("R", "1", "X", "A", "1", "DNF")})
	assert.False(t, ok)
	assert.Empty(t, TopFastest(nil, 10))
}

func TestRoundStats(t *testing.T) {
	rs, _ := sample()
	stats := RoundStats(rs)
	require.Len(t, stats, 2)

	assert.Equal(t, "Heats", stats[0].Round)
	assert.Equal(t, 2, stats[0].Heats)
	assert.InDelta(t, 42.0, stats[0].Mean.GetOrZero(), 1e-9)
	assert.InDelta(t, 41.9, stats[0].Best.GetOrZero(), 1e-9)

	assert.Equal(t, "Final", stats[1].Round)
	assert.Equal(t, 1, stats[1].Heats)
	assert.InDelta(t, 41.95, stats[1].Best.GetOrZero(), 1e-9)
}

func TestRoundStats_AllAbsent(t *testing.T) {
	stats := RoundStats([]enrich.HeatResult{hr("Semi", "S1", "X", "A", "", "DQ")})
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Mean.IsNull())
	assert.True(t, stats[0].Best.IsNull())
	assert.Equal(t, 1, stats[0].Heats)
}

func TestCountryLeaderboard(t *testing.T) {
	rs := []enrich.HeatResult{
		hr("R", "1", "a1", "A", "1", ""),
		hr("R", "1", "b1", "B", "2", ""),
		hr("R", "1", "a2", "A", "3", ""),
		hr("R", "1", "c1", "C", "x", ""),
	}
	board := CountryLeaderboard(rs)
	require.Len(t, board, 2)
	assert.Equal(t, CountryRank{Country: "A", MeanRank: 2.0, Participants: 2}, board[0])
	assert.Equal(t, CountryRank{Country: "B", MeanRank: 2.0, Participants: 1}, board[1])
}

func TestCountDistinct(t *testing.T) {
	rs, roster := sample()
	c := CountDistinct(roster, rs)
	assert.Equal(t, Counts{Competitors: 3, Heats: 3, Rounds: 2}, c)
	assert.Equal(t, Counts{}, CountDistinct(nil, nil))
}

func TestFilters(t *testing.T) {
	rs, _ := sample()
	assert.Len(t, FilterByCountry(rs, "a"), 3)
	assert.Len(t, FilterByAthlete(rs, "bo kim"), 2)
	assert.Len(t, FilterByCountry(rs, ""), 5)
	assert.Empty(t, FilterByCountry(rs, "Z"))
	assert.Len(t, Filters{Country: "A", Athlete: "Ada LEE"}.Results(rs), 2)

	assert.Equal(t, []string{"A", "B"}, Countries(rs))
	assert.Equal(t, []string{"Ada LEE", "Bo KIM", "Cy NG"}, Athletes(rs))
}

func TestFilters_Table(t *testing.T) {
	tb := dataset.NewTable("laps", enrich.ColAthlete, enrich.ColCountryName, enrich.ColLap)
	tb.AppendRow("Ada LEE", "A", "1")
	tb.AppendRow("Bo KIM", "B", "1")
	tb.AppendRow("Ada LEE", "A", "2")

	out := Filters{Athlete: "ADA lee"}.Table(tb)
	assert.Equal(t, 2, out.Len())
	assert.Same(t, tb, Filters{}.Table(tb))

	bare := dataset.NewTable("x", "Lap")
	bare.AppendRow("1")
	assert.Equal(t, 0, Filters{Country: "A"}.Table(bare).Len())
}

func TestReportMarkdown(t *testing.T) {
	rs, roster := sample()
	r := Compute(roster, rs, 0)
	require.NotNil(t, r.Winner)
	assert.Equal(t, DefaultTopN, r.TopN)

	md := r.Markdown()
	for _, want := range []string{
		"[INSIGHTS]", "Competitors: 3", "Winner: Cy NG (A) with 41.900 s in Heats",
		"[PER-ROUND]", "- Heats: mean 42.000 s, best 41.900 s, heats 2",
		"[TOP 10 FASTEST]", "1. Cy NG (A) 41.900 s, Heats H2",
		"[COUNTRY LEADERBOARD]", "- A: mean rank 1.67 (n=3)",
	} {
		assert.True(t, strings.Contains(md, want), "missing %q in:\n%s", want, md)
	}

	empty := Compute(nil, nil, 5).Markdown()
	assert.Contains(t, empty, "Winner: none")
	assert.Contains(t, empty, "[TOP 5 FASTEST]")
	assert.Contains(t, empty, "(no ranked results)")
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "—", seconds(null.Val[float64]{}))
	assert.Equal(t, "9.100", seconds(null.From(9.1)))
}
