package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/prosumer/api/runs"
	"github.com/kilianp07/prosumer/config"
	"github.com/kilianp07/prosumer/core/runlog"
	"github.com/kilianp07/prosumer/infra/logger"
	"github.com/kilianp07/prosumer/infra/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history and Prometheus metrics over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := runlog.NewStore(cfg.Store.Module())
	if err != nil {
		return fmt.Errorf("run store: %w", err)
	}
	logg := logger.New("serve")
	defer func() {
		if err := store.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	}()

	ln, err := net.Listen("tcp", cfg.API.Address)
	if err != nil {
		return err
	}
	logg.Infof("serving /runs and /metrics on %s", ln.Addr())
	mux := metrics.NewMux(map[string]http.Handler{
		"/runs": runs.NewHandler(store, cfg.API.Token),
	})
	return metrics.Serve(ctx, ln, mux)
}
