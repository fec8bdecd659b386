package dashboard

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
	"github.com/KaramelBytes/skatelens-cli/internal/insights"
	"github.com/KaramelBytes/skatelens-cli/internal/normalize"
)

// Filters narrows the heat competitors, laps and insights tabs.
type Filters = insights.Filters

// Tab identifiers, in display order.
const (
	TabRounds          = "rounds"
	TabHeats           = "heats"
	TabHeatCompetitors = "heat_competitors"
	TabLaps            = "laps"
	TabInsights        = "insights"
)

// TabOrder lists every tab in display order.
var TabOrder = []string{TabRounds, TabHeats, TabHeatCompetitors, TabLaps, TabInsights}

// Empty-state messages.
const (
	MsgNoEvents        = "No events available."
	MsgNoRounds        = "No rounds data available."
	MsgNoHeats         = "No heats data available."
	MsgNoHeatResults   = "Missing either heat_competitors.csv or competitors.csv."
	MsgNoLaps          = "Missing laps.csv or competitors.csv."
	MsgNoInsightsInput = "No heat results available for insights."
)

// Tab is one panel of the event view: a table with a total line, an
// insights report, or an empty-state message.
type Tab struct {
	Key     string           `json:"key"`
	Title   string           `json:"title"`
	Table   *dataset.Table   `json:"table,omitempty"`
	Total   string           `json:"total,omitempty"`
	Report  *insights.Report `json:"report,omitempty"`
	Empty   string           `json:"empty,omitempty"`
	Missing []string         `json:"missing_fields,omitempty"`
}

// IsEmpty reports whether the tab shows an empty-state message.
func (t Tab) IsEmpty() bool { return t.Empty != "" }

// Headline describes the first event row.
type Headline struct {
	Name       string `json:"name"`
	Discipline string `json:"discipline"`
	Location   string `json:"location"`
	StartTime  string `json:"start_time"`
}

func (h Headline) String() string {
	return fmt.Sprintf("%s (%s) in %s", lo.CoalesceOrEmpty(h.Name, "Unknown Event"), h.Discipline, h.Location)
}

// View is everything rendered for the selected event.
type View struct {
	Event     dataset.Folder    `json:"event"`
	Events    *dataset.Table    `json:"events"`
	Headline  *Headline         `json:"headline,omitempty"`
	Notice    string            `json:"notice,omitempty"`
	Tabs      []Tab             `json:"tabs"`
	Filters   Filters           `json:"filters"`
	Countries []string          `json:"countries"`
	Athletes  []string          `json:"athletes"`
	Warnings  []dataset.Warning `json:"warnings,omitempty"`
}

// Tab returns the tab with key, if present.
func (v *View) Tab(key string) (Tab, bool) {
	return lo.Find(v.Tabs, func(t Tab) bool { return t.Key == key })
}

// Options tunes Build.
type Options struct {
	TopN int
}

// Build prepares every table of the selected event. Only a missing events
// table is an error; every other absent input becomes an empty-state tab.
func Build(s *Session, f Filters) (*View, error) {
	return BuildWith(s, f, Options{})
}

// BuildWith is Build with explicit options.
func BuildWith(s *Session, f Filters, opts Options) (*View, error) {
	if s == nil || !s.HasSelection() {
		return nil, ErrNoSelection
	}
	ds := s.Datasets
	rawEvents := ds.Get(dataset.Events)
	if rawEvents == nil {
		return nil, ErrNoEvents
	}

	v := &View{
		Event:    s.Selected,
		Events:   normalize.Events(rawEvents),
		Filters:  f,
		Warnings: s.Warnings,
	}
	if v.Events.Len() == 0 {
		v.Notice = MsgNoEvents
	} else {
		v.Headline = &Headline{
			Name:       v.Events.Value(0, "Event Name"),
			Discipline: v.Events.Value(0, "Discipline"),
			Location:   v.Events.Value(0, normalize.ColLocation),
			StartTime:  v.Events.Value(0, normalize.ColStartTime),
		}
	}

	roster := ds.Get(dataset.Competitors)
	results := ds.Get(dataset.HeatCompetitors)

	v.Tabs = append(v.Tabs,
		entityTab(TabRounds, "Rounds", ds.Get(dataset.Rounds), normalize.Rounds, normalize.RoundSchema, "Total Rounds", MsgNoRounds),
		entityTab(TabHeats, "Heats", ds.Get(dataset.Heats), normalize.Heats, normalize.HeatSchema, "Total Heats", MsgNoHeats),
	)

	hc := Tab{Key: TabHeatCompetitors, Title: "Heat Competitors"}
	var all []enrich.HeatResult
	if results != nil && roster != nil {
		prepared := enrich.HeatResults(results, roster)
		all = enrich.ParseHeatResults(prepared)
		hc.Table = f.Table(prepared)
		hc.Total = total("Total Heat Entries", hc.Table.Len())
	} else {
		hc.Empty = MsgNoHeatResults
	}
	v.Tabs = append(v.Tabs, hc)

	laps := Tab{Key: TabLaps, Title: "Laps"}
	if rawLaps := ds.Get(dataset.Laps); rawLaps != nil && roster != nil {
		laps.Table = f.Table(enrich.LapResults(rawLaps, roster))
		laps.Total = total("Total Lap Records", laps.Table.Len())
	} else {
		laps.Empty = MsgNoLaps
	}
	v.Tabs = append(v.Tabs, laps)

	ins := Tab{Key: TabInsights, Title: "Insights"}
	if results != nil {
		if all == nil {
			all = enrich.ParseHeatResults(enrich.HeatResults(results, roster))
		}
		v.Countries = insights.Countries(all)
		v.Athletes = insights.Athletes(all)
		ins.Report = insights.Compute(roster, f.Results(all), opts.TopN)
	} else {
		ins.Empty = MsgNoInsightsInput
	}
	v.Tabs = append(v.Tabs, ins)
	return v, nil
}

func entityTab(key, title string, raw *dataset.Table, norm func(*dataset.Table) *dataset.Table, schema normalize.Schema, label, empty string) Tab {
	t := Tab{Key: key, Title: title}
	if raw == nil {
		t.Empty = empty
		return t
	}
	t.Table = norm(raw)
	t.Total = total(label, t.Table.Len())
	t.Missing = lo.Map(schema.Validate(t.Table), func(f normalize.Field, _ int) string { return f.Name })
	return t
}

func total(label string, n int) string { return fmt.Sprintf("%s: %d", label, n) }
