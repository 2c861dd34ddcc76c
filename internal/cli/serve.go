package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/taskbench/internal/config"
	"github.com/roach88/taskbench/internal/logging"
	"github.com/roach88/taskbench/internal/metrics"
	"github.com/roach88/taskbench/internal/record"
	"github.com/roach88/taskbench/internal/runner"
	"github.com/roach88/taskbench/internal/store"
	"github.com/roach88/taskbench/internal/submission"
	"github.com/roach88/taskbench/internal/viewer"
	"github.com/roach88/taskbench/internal/web"
)

type serveOptions struct {
	addr    string
	catalog string
	db      string
	resume  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var so serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task viewer and grade tasks live",
		Long: `Serve the task list and task pages over HTTP and run the
change-detecting test runner against the active task.

Verdict changes are logged, pushed to connected pages over a websocket
and, when a store is configured, persisted to a new session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, so, cmd)
		},
	}

	cmd.Flags().StringVar(&so.addr, "addr", "", "listen address (default server.addr from config)")
	cmd.Flags().StringVar(&so.catalog, "catalog", "", "catalog YAML file")
	cmd.Flags().StringVar(&so.db, "db", "", "verdict store path (default store.path from config)")
	cmd.Flags().BoolVar(&so.resume, "resume", false, "continue the latest store session instead of starting one")

	return cmd
}

func runServe(opts *RootOptions, so serveOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	applyServeFlags(&cfg, so)

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, closer := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:      level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer closer.Close()

	loader, err := newLoader(cfg.Schema.CacheSize)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create loader", err)
	}
	cat, err := loadCatalog(loader, cfg.Catalog.Path)
	if err != nil {
		return catalogError(formatter, err, ExitCommandError)
	}
	logger.Info("catalog loaded", "catalog", catalogLabel(cfg.Catalog.Path), "tasks", cat.Len())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	rec := record.New()
	hub := web.NewHub(logger)

	runnerOpts := []runner.Option{
		runner.WithInterval(cfg.Runner.Interval),
		runner.WithClearOnSwitch(cfg.Runner.ClearOnSwitch),
		runner.WithLogger(logger),
		runner.WithMetrics(m),
		runner.WithReporter(runner.LogReporter{Logger: logger}),
		runner.WithReporter(hub),
	}

	var (
		st   *store.Store
		sess store.Session
	)
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open store", err)
		}
		defer st.Close()

		var start int64
		sess, start, err = openSession(ctx, st, catalogLabel(cfg.Catalog.Path), so.resume)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open session", err)
		}
		logger.Info("session opened", "session", sess.ID, "resume_after", start)

		runnerOpts = append(runnerOpts,
			runner.WithSequencer(runner.NewClockAt(start)),
			runner.WithReporter(&viewer.VerdictLog{Store: st, SessionID: sess.ID, Logger: logger}),
		)
	}

	r, err := runner.New(rec, runnerOpts...)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}

	ctrl, err := viewer.New(viewer.Config{
		Record:      rec,
		Catalog:     cat,
		Runner:      r,
		Submissions: submission.NewChannel(rec, submission.WithLogger(logger), submission.WithMetrics(m)),
		Store:       st,
		SessionID:   sess.ID,
		Logger:      logger,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create viewer", err)
	}

	return serve(ctx, r, web.NewServer(ctrl, hub, reg, logger), cfg.Server.Addr, logger)
}

// serve runs the runner and HTTP server until ctx is cancelled or the
// server fails, then waits for the runner to stop.
func serve(ctx context.Context, r *runner.Runner, srv *web.Server, addr string, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- r.Run(ctx)
	}()

	err := srv.Serve(ctx, addr)
	cancel()
	if rerr := <-runnerDone; rerr != nil && !errors.Is(rerr, context.Canceled) {
		logger.Error("runner stopped", "error", rerr)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("serve %s", addr), err)
	}
	logger.Info("shutdown complete")
	return nil
}

// openSession starts a new session, or with resume continues the latest
// one and returns the verdict seq to continue after.
func openSession(ctx context.Context, st *store.Store, catalogName string, resume bool) (store.Session, int64, error) {
	if resume {
		sess, err := st.LatestSession(ctx)
		switch {
		case err == nil:
			start, err := st.MaxVerdictSeq(ctx, sess.ID)
			return sess, start, err
		case !errors.Is(err, store.ErrSessionNotFound):
			return store.Session{}, 0, err
		}
	}
	sess, err := st.BeginSession(ctx, catalogName, time.Now())
	return sess, 0, err
}

func applyServeFlags(cfg *config.Config, so serveOptions) {
	if so.addr != "" {
		cfg.Server.Addr = so.addr
	}
	if so.catalog != "" {
		cfg.Catalog.Path = so.catalog
	}
	if so.db != "" {
		cfg.Store.Path = so.db
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
