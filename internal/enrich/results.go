package enrich

import (
	"math"
	"strconv"
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/normalize"
)

// Heat-result display columns.
const (
	ColRank          = "Rank"
	ColResult        = "Result (s)"
	ColLaps          = "Laps"
	ColQualification = "Qualification"
	ColStatus        = "Status"
)

// Lap display columns.
const (
	ColLap       = "Lap"
	ColLapTime   = "Lap Time (s)"
	ColTotalTime = "Total Time (s)"
	ColDiff      = "Diff (s)"
)

const rawQualification = "qualification_code"

// NotClassified is the label for codes outside the known set.
const NotClassified = "Not classified"

var qualifications = map[string]string{
	"Q":   "Qualified automatically (top places)",
	"QA":  "Qualified as best time (fastest loser)",
	"ADV": "Advanced by referee decision",
	"PEN": "Penalized / disqualified",
	"q":   "Qualified automatically (lower heat)",
	"—":   NotClassified,
}

// QualificationText expands a qualification code. Codes are case-sensitive
// ("Q" and "q" differ); anything unknown, including "", is NotClassified.
func QualificationText(code string) string {
	if txt, ok := qualifications[strings.TrimSpace(code)]; ok {
		return txt
	}
	return NotClassified
}

var heatResultRename = map[string]string{
	"round_name":     normalize.ColRoundName,
	"heat_name":      normalize.ColHeatName,
	"final_rank":     ColRank,
	"final_result":   ColResult,
	"num_laps":       ColLaps,
	rawQualification: ColQualification,
	"result_status":  ColStatus,
}

// HeatResultColumns is the display order of prepared heat results.
var HeatResultColumns = []string{
	normalize.ColRoundName, normalize.ColHeatName, ColAthlete, ColCountryName,
	ColRank, ColResult, ColLaps, ColQualification, ColStatus,
}

var lapRename = map[string]string{
	"round_name":        normalize.ColRoundName,
	"heat_name":         normalize.ColHeatName,
	"lap_number":        ColLap,
	"rank":              ColRank,
	"lap_time":          ColLapTime,
	"total_time":        ColTotalTime,
	"result_difference": ColDiff,
}

// LapColumns is the display order of prepared lap records.
var LapColumns = []string{
	normalize.ColRoundName, normalize.ColHeatName, ColAthlete, ColCountryName,
	ColLap, ColRank, ColLapTime, ColTotalTime, ColDiff,
}

// HeatResults joins heat_competitors with the roster, expands qualification
// codes and projects to HeatResultColumns.
func HeatResults(results, roster *dataset.Table) *dataset.Table {
	t := Join(results, roster)
	t.Name = dataset.HeatCompetitors
	if codes := t.Column(rawQualification); codes != nil {
		for i, c := range codes {
			codes[i] = QualificationText(c)
		}
		t.SetColumn(rawQualification, codes)
	}
	t.Rename(heatResultRename)
	return t.Select(HeatResultColumns...)
}

// LapResults joins laps with the roster and projects to LapColumns.
func LapResults(laps, roster *dataset.Table) *dataset.Table {
	t := Join(laps, roster)
	t.Name = dataset.Laps
	t.Rename(lapRename)
	return t.Select(LapColumns...)
}

// ParseNumber coerces a cell to a number; blanks, NaN and text are absent.
func ParseNumber(s string) null.Val[float64] {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Val[float64]{}
	}
	return null.From(f)
}

// HeatResult is a typed row of the prepared heat-results table.
type HeatResult struct {
	Round         string
	Heat          string
	Athlete       string
	Country       string
	Rank          null.Val[float64]
	Result        null.Val[float64]
	Laps          string
	Qualification string
	Status        string
}

// ParseHeatResults reads a table shaped like HeatResults output. Non-numeric
// rank and result cells become absent; the row is kept.
func ParseHeatResults(t *dataset.Table) []HeatResult {
	out := make([]HeatResult, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		out = append(out, HeatResult{
			Round:         t.Value(i, normalize.ColRoundName),
			Heat:          t.Value(i, normalize.ColHeatName),
			Athlete:       t.Value(i, ColAthlete),
			Country:       t.Value(i, ColCountryName),
			Rank:          ParseNumber(t.Value(i, ColRank)),
			Result:        ParseNumber(t.Value(i, ColResult)),
			Laps:          t.Value(i, ColLaps),
			Qualification: t.Value(i, ColQualification),
			Status:        t.Value(i, ColStatus),
		})
	}
	return out
}
