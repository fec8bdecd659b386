package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
	"github.com/KaramelBytes/skatelens-cli/internal/enrich"
)

var (
	askEvent       string
	askProvider    string
	askModel       string
	askRows        int
	askTimeoutSec  int
	askPrintPrompt bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the explainer a question, optionally about one event",
	Long: `Ask sends the question to the configured chat model. When --event is given and
the question contains the trigger phrase (default "explain results"), the first
heat results of that event are described to the model before the question.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		b, err := newBridge(askProvider, askModel)
		if err != nil {
			return err
		}
		n := cfg.SummaryRows
		if cmd.Flags().Changed("rows") && askRows > 0 {
			n = askRows
		}
		b.MaxRows = n

		var rows []enrich.RowSummary
		if askEvent != "" {
			s, err := openEvent(askEvent)
			if err != nil {
				return err
			}
			rows = enrich.Summaries(s.Datasets.Get(dataset.HeatCompetitors), s.Datasets.Get(dataset.Competitors), n)
		}
		out := cmd.OutOrStdout()
		if askPrintPrompt {
			fmt.Fprintln(out, "=== PROMPT ===")
			fmt.Fprintln(out, b.Prompt(question, rows))
			fmt.Fprintln(out, "=== RESPONSE ===")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if askTimeoutSec > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(askTimeoutSec)*time.Second)
			defer cancel()
		}
		fmt.Fprintln(out, b.Ask(ctx, question, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askEvent, "event", "e", "", "event folder whose results are described to the model")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "dashscope|openai|ollama|local (overrides config)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model name (overrides config)")
	askCmd.Flags().IntVar(&askRows, "rows", 0, "number of heat results to describe (overrides config)")
	askCmd.Flags().IntVar(&askTimeoutSec, "timeout", 0, "overall timeout in seconds")
	askCmd.Flags().BoolVar(&askPrintPrompt, "print-prompt", false, "print the user prompt before the answer")
}
