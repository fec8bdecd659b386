package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

var eventsJSON bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List event folders under the data root",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		events, err := dashboard.NewSession(cfg.DataRoot).Events()
		if err != nil {
			return err
		}
		if eventsJSON {
			if events == nil {
				events = []dataset.Folder{}
			}
			return writeJSON(out, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "(no events)")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "- %s\n", e.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print folders as JSON")
}
