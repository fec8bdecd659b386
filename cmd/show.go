package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
)

var (
	showEvent   string
	showTab     string
	showCountry string
	showAthlete string
	showJSON    bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the prepared tables of one event",
	Long: `Show loads one event folder and prints the events overview followed by the
rounds, heats, heat competitors, laps and insights tabs. --country and --athlete
narrow the heat competitors, laps and insights tabs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEvent(showEvent)
		if err != nil {
			return err
		}
		v, err := dashboard.BuildWith(s,
			dashboard.Filters{Country: showCountry, Athlete: showAthlete},
			dashboard.Options{TopN: cfg.TopN})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if showTab == "" {
			if showJSON {
				return writeJSON(out, v)
			}
			fmt.Fprint(out, dashboard.RenderView(v))
			return nil
		}
		tab, ok := v.Tab(showTab)
		if !ok {
			return fmt.Errorf("unknown tab %q (available: %s)", showTab, strings.Join(dashboard.TabOrder, ", "))
		}
		if showJSON {
			return writeJSON(out, tab)
		}
		fmt.Fprint(out, dashboard.RenderTab(tab))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showEvent, "event", "e", "", "event folder name (required)")
	showCmd.Flags().StringVarP(&showTab, "tab", "t", "", "only this tab: "+strings.Join(dashboard.TabOrder, "|"))
	showCmd.Flags().StringVar(&showCountry, "country", "", "filter by country name")
	showCmd.Flags().StringVar(&showAthlete, "athlete", "", "filter by athlete display name")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON instead of Markdown")
}
