package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
)

var (
	insEvent   string
	insTopN    int
	insCountry string
	insAthlete string
	insJSON    bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print winner, per-round stats, fastest results and country leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEvent(insEvent)
		if err != nil {
			return err
		}
		topN := cfg.TopN
		if cmd.Flags().Changed("top") && insTopN > 0 {
			topN = insTopN
		}
		v, err := dashboard.BuildWith(s,
			dashboard.Filters{Country: insCountry, Athlete: insAthlete},
			dashboard.Options{TopN: topN})
		if err != nil {
			return err
		}
		tab, _ := v.Tab(dashboard.TabInsights)
		out := cmd.OutOrStdout()
		if tab.IsEmpty() {
			fmt.Fprintln(out, tab.Empty)
			return nil
		}
		if insJSON {
			return writeJSON(out, tab.Report)
		}
		fmt.Fprint(out, tab.Report.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVarP(&insEvent, "event", "e", "", "event folder name (required)")
	insightsCmd.Flags().IntVar(&insTopN, "top", 0, "number of fastest results to list (overrides config)")
	insightsCmd.Flags().StringVar(&insCountry, "country", "", "filter by country name")
	insightsCmd.Flags().StringVar(&insAthlete, "athlete", "", "filter by athlete display name")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "print JSON instead of Markdown")
}
