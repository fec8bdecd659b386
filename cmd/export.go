package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
	"github.com/KaramelBytes/skatelens-cli/internal/insights"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
	"github.com/KaramelBytes/skatelens-cli/internal/utils"
)

var (
	exportEvent   string
	exportOut     string
	exportCountry string
	exportAthlete string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every prepared table of one event to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEvent(exportEvent)
		if err != nil {
			return err
		}
		v, err := dashboard.BuildWith(s,
			dashboard.Filters{Country: exportCountry, Athlete: exportAthlete},
			dashboard.Options{TopN: cfg.TopN})
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = exportEvent + ".xlsx"
		}
		sheets, err := writeWorkbook(out, exportTables(v))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d sheets to %s\n", sheets, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportEvent, "event", "e", "", "event folder name (required)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default <event>.xlsx)")
	exportCmd.Flags().StringVar(&exportCountry, "country", "", "filter by country name")
	exportCmd.Flags().StringVar(&exportAthlete, "athlete", "", "filter by athlete display name")
}

// exportTables lists the sheets of the workbook in display order. Empty-state
// tabs are skipped; the insights report is split into three tables.
func exportTables(v *dashboard.View) []*dataset.Table {
	events := v.Events.Clone()
	events.Name = "Events"
	out := []*dataset.Table{events}
	for _, tab := range v.Tabs {
		switch {
		case tab.IsEmpty():
			continue
		case tab.Report != nil:
			out = append(out, reportTables(tab.Report)...)
		default:
			t := tab.Table.Clone()
			t.Name = tab.Title
			out = append(out, t)
		}
	}
	return out
}

func reportTables(r *insights.Report) []*dataset.Table {
	rounds := dataset.NewTable("Per Round", "Round", "Mean (s)", "Best (s)", "Heats")
	for _, s := range r.Rounds {
		rounds.AppendRow(s.Round, formatSeconds(s.Mean.Get()), formatSeconds(s.Best.Get()), strconv.Itoa(s.Heats))
	}
	fastest := dataset.NewTable("Fastest", enrich.ColAthlete, enrich.ColCountryName, "Round", "Heat", enrich.ColResult)
	for _, h := range r.Fastest {
		fastest.AppendRow(h.Athlete, h.Country, h.Round, h.Heat, formatSeconds(h.Result.Get()))
	}
	countries := dataset.NewTable("Countries", enrich.ColCountryName, "Mean Rank", "Participants")
	for _, c := range r.Countries {
		countries.AppendRow(c.Country, strconv.FormatFloat(c.MeanRank, 'f', 2, 64), strconv.Itoa(c.Participants))
	}
	return []*dataset.Table{rounds, fastest, countries}
}

func formatSeconds(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// writeWorkbook writes one sheet per table and replaces path atomically.
// Cells that parse as numbers are stored as numbers.
func writeWorkbook(path string, tables []*dataset.Table) (int, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Named("cmd").Warn("close workbook", zap.Error(err))
		}
	}()
	first := f.GetSheetName(0)
	for i, t := range tables {
		name := t.Name
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return 0, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return 0, fmt.Errorf("add sheet %s: %w", name, err)
		}
		header := make([]any, len(t.Columns))
		for c, col := range t.Columns {
			header[c] = col
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return 0, fmt.Errorf("write %s header: %w", name, err)
		}
		for r, row := range t.Rows {
			cells := make([]any, len(row))
			for c, v := range row {
				if n := enrich.ParseNumber(v); n.IsValue() {
					cells[c] = n.GetOrZero()
				} else {
					cells[c] = v
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return 0, err
			}
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				return 0, fmt.Errorf("write %s row %d: %w", name, r+1, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return 0, fmt.Errorf("encode workbook: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return 0, err
	}
	return len(tables), nil
}
