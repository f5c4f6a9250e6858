package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/metrics"
	"github.com/rustyeddy/gridsim/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over HTTP",
	Long: `Serve starts the HTTP API:

  GET  /health
  GET  /api/v1/grid?price=&step=&levels=
  POST /api/v1/simulate
  POST /api/v1/sweep
  GET  /api/v1/runs, /api/v1/runs/:id   (sqlite journal only)
  GET  /metrics

Example:
  gridsim serve --addr :8080 --journal sqlite --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origin (repeatable, default any)")
	bindJournalFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("cors-origin") {
		cfg.Server.CORSOrigins, _ = cmd.Flags().GetStringSlice("cors-origin")
	}
	applyJournalFlags(cmd, &cfg.Journal)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &server.Server{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
		Params:      paramsFromConfig(),
		Logger:      logger,
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()
	srv.Journal = j
	if sq, ok := j.(*journal.SQLiteJournal); ok {
		srv.Runs = sq
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.ListenAndServe(ctx)
	logger.Info("http server stopped", zap.Error(err))
	return err
}
