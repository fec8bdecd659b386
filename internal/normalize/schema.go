package normalize

import (
	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

// Field is one output column of a display table.
type Field struct {
	Name     string
	Required bool
}

// Schema declares how a raw table becomes a display table: which technical
// columns are dropped, how the rest are renamed, and the ordered output fields.
type Schema struct {
	Entity string
	Drop   []string
	Rename map[string]string
	Fields []Field
}

// FieldNames returns the output column names in order.
func (s Schema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Validate lists the declared fields absent from a normalized table.
func (s Schema) Validate(t *dataset.Table) (missing []Field) {
	for _, f := range s.Fields {
		if !t.Has(f.Name) {
			missing = append(missing, f)
		}
	}
	return missing
}

// MissingRequired reports the required fields absent from a normalized table.
func (s Schema) MissingRequired(t *dataset.Table) []string {
	var out []string
	for _, f := range s.Validate(t) {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Apply runs the drop/rename/derive/project template. Absent input columns
// only shrink the output; Apply never fails.
func (s Schema) Apply(src *dataset.Table) *dataset.Table {
	if src == nil {
		return dataset.NewTable(s.Entity)
	}
	t := src.Clone()
	t.Name = s.Entity
	t.DropColumns(s.Drop...)
	t.Rename(s.Rename)

	if t.Has(rawStartDate) {
		raw := t.Column(rawStartDate)
		out := make([]string, len(raw))
		for i, v := range raw {
			out[i], _ = FormatStartTime(v)
		}
		t.SetColumn(ColStartTime, out)
		t.DropColumns(rawStartDate)
	}
	if t.Has(rawJSONSource) {
		raw := t.Column(rawJSONSource)
		out := make([]string, len(raw))
		for i, v := range raw {
			out[i] = DeriveLocation(v)
		}
		t.SetColumn(ColLocation, out)
		t.DropColumns(rawJSONSource)
	}
	return t.Select(s.FieldNames()...)
}

var timeParts = []string{"start_year", "start_month", "start_day", "start_hour", "start_minute", "time_zone"}

// EventSchema describes events.csv.
var EventSchema = Schema{
	Entity: dataset.Events,
	Drop:   append([]string{"event_id", "discipline_distance", "sport_code", "gender", "status"}, timeParts...),
	Rename: map[string]string{
		"event_name":      "Event Name",
		"discipline_name": "Discipline",
	},
	Fields: []Field{
		{Name: "Event Name", Required: true},
		{Name: "Discipline"},
		{Name: ColStartTime},
		{Name: ColLocation},
	},
}

// RoundSchema describes rounds.csv.
var RoundSchema = Schema{
	Entity: dataset.Rounds,
	Drop:   append([]string{"state"}, timeParts...),
	Rename: map[string]string{
		"round_name":    ColRoundName,
		"display_order": ColOrder,
		"num_heats":     "Heats",
	},
	Fields: []Field{
		{Name: ColRoundName, Required: true},
		{Name: ColOrder},
		{Name: "Heats"},
		{Name: ColStartTime},
		{Name: ColLocation},
	},
}

// HeatSchema describes heats.csv.
var HeatSchema = Schema{
	Entity: dataset.Heats,
	Drop:   append([]string{"heat_id", "status", "result_status", "photo"}, timeParts...),
	Rename: map[string]string{
		"round_name":      ColRoundName,
		"heat_name":       ColHeatName,
		"num_competitors": "Competitors",
		"display_order":   ColOrder,
	},
	Fields: []Field{
		{Name: ColRoundName, Required: true},
		{Name: ColHeatName, Required: true},
		{Name: "Competitors"},
		{Name: ColOrder},
		{Name: ColStartTime},
		{Name: ColLocation},
	},
}
