package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tagtrack/internal/config"
	"tagtrack/internal/counters"
	"tagtrack/internal/preflight"
	"tagtrack/internal/store"
)

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	DatabasePath string             `json:"database_path"`
	Checks       []preflight.Result `json:"checks"`
	Imports      map[string]int     `json:"imports"`
	Locations    int                `json:"locations"`
	Counters     map[string]int64   `json:"counters"`
	CounterError string             `json:"counter_error,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks, store statistics, and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				report, err := buildStatusReport(cmd.Context(), cfg, st)
				if err != nil {
					return err
				}
				report.ConfigPath = ctx.configPath
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				out := cmd.OutOrStdout()
				renderStatusReport(out, report, shouldColorize(out))
				return nil
			})
		},
	}
}

func buildStatusReport(ctx context.Context, cfg *config.Config, st *store.Store) (statusReport, error) {
	report := statusReport{
		DatabasePath: st.Path(),
		Checks:       preflight.RunAll(ctx, cfg, st),
		Imports:      map[string]int{},
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return report, fmt.Errorf("read stats: %w", err)
	}
	for status, count := range stats.Imports {
		report.Imports[string(status)] = count
	}
	report.Locations = stats.Locations

	report.Counters, err = readCounters(ctx, cfg, st)
	if err != nil {
		report.CounterError = err.Error()
	}
	return report, nil
}

// readCounters reports every SQLite counter, or the processor run count from
// Redis when that backend is configured.
func readCounters(ctx context.Context, cfg *config.Config, st *store.Store) (map[string]int64, error) {
	if strings.TrimSpace(cfg.Counters.RedisAddr) == "" {
		return st.Counters(ctx)
	}
	counter, closeCounter, err := counters.New(ctx, cfg, st)
	if err != nil {
		return nil, err
	}
	defer closeCounter()
	runs, err := counter.Get(ctx, counters.ProcessorRuns)
	if err != nil {
		return nil, err
	}
	return map[string]int64{counters.ProcessorRuns: runs}, nil
}
