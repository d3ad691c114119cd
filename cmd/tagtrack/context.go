package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tagtrack/internal/config"
	"tagtrack/internal/counters"
	"tagtrack/internal/logging"
	"tagtrack/internal/notifications"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// cliLogger writes warnings and errors to stderr so command output stays clean.
func (c *commandContext) cliLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// withManager builds an unstarted workflow manager for one-shot processing.
func (c *commandContext) withManager(ctx context.Context, fn func(*config.Config, *store.Store, *workflow.Manager) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		logger := c.cliLogger(cfg)
		counter, closeCounter, err := counters.New(ctx, cfg, st)
		if err != nil {
			return err
		}
		defer closeCounter()
		notifier := notifications.NewService(cfg)
		mgr := workflow.NewManager(cfg, st, processor.New(st, notifier, logger), counter, notifier, logger)
		return fn(cfg, st, mgr)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
