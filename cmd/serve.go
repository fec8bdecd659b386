package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/dashboard"
	"github.com/KaramelBytes/skatelens-cli/internal/explainer"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
	"github.com/KaramelBytes/skatelens-cli/internal/metrics"
)

var (
	serveAddr     string
	serveEvent    string
	serveProvider string
	serveModel    string
	serveNoAI     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API and Prometheus metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") && serveAddr != "" {
			addr = serveAddr
		}
		session := dashboard.NewSession(cfg.DataRoot)
		if serveEvent != "" {
			if err := session.Select(serveEvent); err != nil {
				return err
			}
		}
		var bridge *explainer.Bridge
		if !serveNoAI {
			b, err := newBridge(serveProvider, serveModel)
			if err != nil {
				return err
			}
			bridge = b
		}
		srv := dashboard.NewServer(session, bridge, metrics.NewManager(), dashboard.ServerOptions{
			TopN:           cfg.TopN,
			SummaryRows:    cfg.SummaryRows,
			ExplainTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		})

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.DataRoot, addr)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			return err
		}
		log.Named("cmd").Info("dashboard stopped", zap.String("addr", addr))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address host:port (overrides config)")
	serveCmd.Flags().StringVarP(&serveEvent, "event", "e", "", "event folder to select at startup")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "explainer provider (overrides config)")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "explainer model (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoAI, "no-explainer", false, "disable the ask endpoints")
}
