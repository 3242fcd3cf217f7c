package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prosumer/config"
	"github.com/kilianp07/prosumer/core/model"
	"github.com/kilianp07/prosumer/core/runlog"
	"github.com/kilianp07/prosumer/pkg/export"
)

var (
	runsAgent  string
	runsStatus string
	runsSince  time.Duration
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run history commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored runs",
	RunE:  runRunsLs,
}

func init() {
	runsLsCmd.Flags().StringVar(&runsAgent, "agent", "", "only runs of this agent")
	runsLsCmd.Flags().StringVar(&runsStatus, "status", "", "only runs ending with this status")
	runsLsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs started within this duration")
	runsLsCmd.Flags().IntVar(&runsLimit, "limit", 20, "most recent runs to show")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	q := runlog.Query{Agent: runsAgent, Limit: runsLimit}
	if runsStatus != "" {
		if q.Status, err = model.ParseStatus(runsStatus); err != nil {
			return err
		}
	}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	store, err := runlog.NewStore(cfg.Store.Module())
	if err != nil {
		return fmt.Errorf("run store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			if _, ferr := fmt.Fprintf(cmd.ErrOrStderr(), "error while closing store: %v\n", err); ferr != nil {
				fmt.Println("failed to write to stderr:", ferr)
			}
		}
	}()
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return err
	}
	return printRuns(cmd, recs)
}

func printRuns(cmd *cobra.Command, recs []runlog.RunRecord) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tAGENT\tRUN\tSTATUS\tCOST\tWINDOWS\tERROR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Started.Format(time.RFC3339), r.Agent, r.RunID, r.Status,
			export.FormatCost(r.Cost), len(r.Windows), r.Error)
	}
	return tw.Flush()
}
