package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prosumer/app"
	"github.com/kilianp07/prosumer/config"
	"github.com/kilianp07/prosumer/core/dispatch"
	"github.com/kilianp07/prosumer/infra/logger"
	"github.com/kilianp07/prosumer/pkg/export"
)

var (
	runAgents  []string
	runSummary bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Optimize the configured agents and write their schedules",
	RunE:  runDispatch,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(c *cobra.Command) {
	c.Flags().StringSliceVarP(&runAgents, "agent", "a", nil, "agents to optimize (default all)")
	c.Flags().BoolVar(&runSummary, "summary", true, "print a CSV summary of the runs")
}

func runDispatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	outcomes, runErr := svc.Run(ctx, runAgents)
	if runSummary {
		results := make([]dispatch.AgentResult, 0, len(outcomes))
		for _, o := range outcomes {
			if o.Err == nil {
				results = append(results, o.Result)
			}
		}
		if err := export.WriteSummary(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	}
	return runErr
}
