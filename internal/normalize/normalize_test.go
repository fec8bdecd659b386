package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

func TestFormatStartTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15T18:05:00Z", "15/03/2024 – 18:05", true},
		{"2024-03-15 09:30:00+09:00", "15/03/2024 – 09:30", true},
		{"2024-11-29T10:30:00+0000", "29/11/2024 – 10:30", true},
		{"2024-11-29 10:30:00-0500", "29/11/2024 – 10:30", true},
		{"2024-03-15 09:30:00.250", "15/03/2024 – 09:30", true},
		{"2024-03-15", "15/03/2024 – 00:00", true},
		{"not a date", "", false},
		{"", "", false},
		{"NaN", "", false},
	}
	for _, c := range cases {
		got, ok := FormatStartTime(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestDeriveLocation(t *testing.T) {
	assert.Equal(t, "Seoul", DeriveLocation("seoul_man"))
	assert.Equal(t, "Montreal", DeriveLocation("MONTREAL"))
	assert.Equal(t, "Dordrecht", DeriveLocation("dordrecht_2024_women_500"))
	assert.Equal(t, "", DeriveLocation(""))
	assert.Equal(t, "Élan", DeriveLocation("élan_x"))
}

func TestEvents(t *testing.T) {
	raw := dataset.NewTable("events", "event_id", "event_name", "discipline_name", "start_date", "json_source", "gender")
	raw.AppendRow("1", "World Tour 3", "500m", "2024-11-29T10:00:00Z", "seoul_man", "M")
	raw.AppendRow("2", "World Tour 4", "1000m", "garbage", "beijing_women", "W")

	out := Events(raw)
	assert.Equal(t, []string{"Event Name", "Discipline", "Start Time", "Location"}, out.Columns)
	assert.Equal(t, []string{"World Tour 3", "500m", "29/11/2024 – 10:00", "Seoul"}, out.Rows[0])
	// unparseable date nulls the cell but keeps the row
	assert.Equal(t, []string{"World Tour 4", "1000m", "", "Beijing"}, out.Rows[1])
	assert.Empty(t, EventSchema.Validate(out))
	// source table is not mutated
	assert.Equal(t, "event_id", raw.Columns[0])
}

func TestRounds_MissingColumnsTolerated(t *testing.T) {
	raw := dataset.NewTable("rounds", "round_name", "state", "time_zone")
	raw.AppendRow("Quarterfinals", "done", "UTC")

	out := Rounds(raw)
	assert.Equal(t, []string{"Round Name"}, out.Columns)
	missing := RoundSchema.Validate(out)
	require.Len(t, missing, 4)
	assert.Empty(t, RoundSchema.MissingRequired(out))
}

func TestHeats(t *testing.T) {
	raw := dataset.NewTable("heats", "heat_id", "round_name", "heat_name", "num_competitors", "display_order", "start_date", "json_source", "photo")
	raw.AppendRow("h1", "Final A", "Heat 1", "5", "1", "2024-02-10 14:45:00", "gangneung_women", "x.jpg")

	out := Heats(raw)
	assert.Equal(t, HeatSchema.FieldNames(), out.Columns)
	assert.Equal(t, []string{"Final A", "Heat 1", "5", "1", "10/02/2024 – 14:45", "Gangneung"}, out.Rows[0])
}

func TestApply_NilTable(t *testing.T) {
	out := Heats(nil)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"Round Name", "Heat Name"}, HeatSchema.MissingRequired(out))
}
