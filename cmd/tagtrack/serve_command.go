package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tagtrack/internal/api"
	"tagtrack/internal/counters"
	"tagtrack/internal/daemon"
	"tagtrack/internal/ingest"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/preflight"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API and background processor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}

	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, st)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}

	counter, closeCounter, err := counters.New(signalCtx, cfg, st)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("init counters: %w", err)
	}
	defer closeCounter()

	notifier := notifications.NewService(cfg)
	proc := processor.New(st, notifier, logger)
	mgr := workflow.NewManager(cfg, st, proc, counter, notifier, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Options{
		Submitter:    ingest.NewGatekeeper(st, mgr, cfg.Ingest.DefaultSource, logger),
		Store:        st,
		Status:       mgr,
		MaxBodyBytes: cfg.MaxBodyBytes(),
		Logger:       logger,
	})

	d, err := daemon.New(cfg, st, mgr, router, logger)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("tagtrack daemon shutting down")
	return nil
}
