package main

import (
	"github.com/spf13/cobra"

	"tagtrack/internal/api"
	"tagtrack/internal/config"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <import-id>",
		Short: "Run the processor once for a pending batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd.Context(), func(_ *config.Config, _ *store.Store, mgr *workflow.Manager) error {
				outcome, err := mgr.ProcessNow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromOutcome(&outcome))
				}
				renderOutcome(cmd.OutOrStdout(), outcome)
				return nil
			})
		},
	}
}
