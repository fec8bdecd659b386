// Package normalize turns raw event, round and heat exports into display tables.
package normalize

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

// Display column names shared across entities.
const (
	ColStartTime = "Start Time"
	ColLocation  = "Location"
	ColRoundName = "Round Name"
	ColHeatName  = "Heat Name"
	ColOrder     = "Order"
)

// Raw source columns used for derived fields.
const (
	rawStartDate  = "start_date"
	rawJSONSource = "json_source"
)

// StartTimeLayout is the display format for start times (en-dash separator, 24h clock).
const StartTimeLayout = "02/01/2006 – 15:04"

var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// FormatStartTime parses raw and renders it with StartTimeLayout. Values that
// do not parse are reported as absent.
func FormatStartTime(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || isNaN(s) {
		return "", false
	}
	for _, l := range startLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Format(StartTimeLayout), true
		}
	}
	return "", false
}

// DeriveLocation returns the part of an encoded source tag before the first
// underscore, capitalized: "seoul_man" -> "Seoul".
func DeriveLocation(tag string) string {
	s := strings.TrimSpace(tag)
	if s == "" || isNaN(s) {
		return ""
	}
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[:i]
	}
	return Capitalize(s)
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func isNaN(s string) bool {
	switch strings.ToLower(s) {
	case "nan", "nat", "none", "null":
		return true
	}
	return false
}

// Events normalizes events.csv.
func Events(t *dataset.Table) *dataset.Table { return EventSchema.Apply(t) }

// Rounds normalizes rounds.csv.
func Rounds(t *dataset.Table) *dataset.Table { return RoundSchema.Apply(t) }

// Heats normalizes heats.csv.
func Heats(t *dataset.Table) *dataset.Table { return HeatSchema.Apply(t) }
