// Package enrich attaches roster names and countries to heat results and lap
// records and expands qualification codes.
package enrich

import (
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
)

// Raw roster columns.
const (
	ColFirstName = "first_name"
	ColLastName  = "last_name"
	ColCountry   = "started_for_nf_country_name"
)

// Derived display columns.
const (
	ColAthlete     = "Athlete"
	ColCountryName = "Country"
)

// Placeholders used when enrichment cannot attach roster data.
const (
	UnknownAthlete = "Unknown"
	NoCountry      = "—"
)

// JoinKeyCandidates lists join columns in priority order.
var JoinKeyCandidates = []string{"competition_competitor_id", "competitor_id", "id"}

// ResolveJoinKey returns the first candidate present as a column in both tables.
func ResolveJoinKey(left, right *dataset.Table, candidates []string) (string, bool) {
	if left == nil || right == nil {
		return "", false
	}
	for _, c := range candidates {
		if left.Has(c) && right.Has(c) {
			return c, true
		}
	}
	return "", false
}

// NormalizeKey coerces an identifier to a comparable string. Missing-value
// markers become "", and integral floats ("12.0") lose their fraction so
// numeric and text exports of the same id match.
func NormalizeKey(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "nan", "none", "null", "<na>":
		return ""
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return s
}

// DisplayName composes Title(first) + " " + UPPER(last), trimmed. The
// upper-casing uses full case mapping, so "strauß" becomes "STRAUSS".
func DisplayName(first, last string) string {
	return strings.TrimSpace(TitleCase(first) + " " + cases.Upper(language.Und).String(last))
}

// TitleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest: "jean-luc o'neil" -> "Jean-Luc O'Neil".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

// Join returns a copy of primary with roster first/last name and nationality
// attached plus the derived Athlete and Country columns. Every primary row is
// kept. When no join key is shared, Athlete and Country carry placeholders.
// A roster id that appears more than once resolves to its first row.
func Join(primary, roster *dataset.Table) *dataset.Table {
	if primary == nil {
		return dataset.NewTable("")
	}
	out := primary.Clone()
	n := out.Len()
	key, ok := ResolveJoinKey(out, roster, JoinKeyCandidates)
	if !ok {
		out.SetColumn(ColAthlete, fill(n, UnknownAthlete))
		out.SetColumn(ColCountryName, fill(n, NoCountry))
		return out
	}

	byKey := make(map[string]int, roster.Len())
	dups := 0
	for i, v := range roster.Column(key) {
		k := NormalizeKey(v)
		if _, seen := byKey[k]; seen {
			dups++
			continue
		}
		byKey[k] = i
	}
	if dups > 0 {
		log.Named("enrich").Debug("duplicate roster ids; first row wins",
			zap.String("key", key), zap.Int("duplicates", dups))
	}

	keys := out.Column(key)
	first := make([]string, n)
	last := make([]string, n)
	country := make([]string, n)
	athlete := make([]string, n)
	countryName := make([]string, n)
	for i, v := range keys {
		k := NormalizeKey(v)
		keys[i] = k
		countryName[i] = NoCountry
		ri, hit := byKey[k]
		if k == "" || !hit {
			continue
		}
		first[i] = roster.Value(ri, ColFirstName)
		last[i] = roster.Value(ri, ColLastName)
		country[i] = roster.Value(ri, ColCountry)
		athlete[i] = DisplayName(first[i], last[i])
		if country[i] != "" {
			countryName[i] = country[i]
		}
	}
	out.SetColumn(key, keys)
	out.SetColumn(ColFirstName, first)
	out.SetColumn(ColLastName, last)
	out.SetColumn(ColCountry, country)
	out.SetColumn(ColAthlete, athlete)
	out.SetColumn(ColCountryName, countryName)
	return out
}

func fill(n int, v string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}
