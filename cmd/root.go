package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ticket-gate/inbound/scan"
)

func Start() {
	cfg := newCfg("env")
	slog.SetLogLoggerLevel(slog.Level(cfg.GetInt("log.level")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{}
	cmd := []*cobra.Command{
		{
			Use:   "gate:scan-confirm",
			Short: "Run a gate terminal that reviews each ticket before validation",
			Run: func(cmd *cobra.Command, args []string) {
				runGateCmd(ctx, scan.PolicyScanConfirm)
			},
		},
		{
			Use:   "gate:direct",
			Short: "Run a gate terminal that validates each scan in one step",
			Run: func(cmd *cobra.Command, args []string) {
				runGateCmd(ctx, scan.PolicyDirectValidate)
			},
		},
		{
			Use:   "monitor:scan-results",
			Short: "Consume gate scan outcomes and record them centrally",
			Run: func(cmd *cobra.Command, args []string) {
				runMonitorCmd(ctx)
			},
		},
		{
			Use:   "validate [token]",
			Short: "Validate a single ticket token without a scanner",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				runValidateCmd(ctx, args[0])
			},
		},
	}

	rootCmd.AddCommand(cmd...)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
