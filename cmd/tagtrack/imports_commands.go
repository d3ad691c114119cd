package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tagtrack/internal/api"
	"tagtrack/internal/config"
	"tagtrack/internal/store"
)

func newImportsCommand(ctx *commandContext) *cobra.Command {
	importsCmd := &cobra.Command{
		Use:   "imports",
		Short: "Inspect submitted batches",
	}
	importsCmd.AddCommand(newImportsListCommand(ctx))
	importsCmd.AddCommand(newImportsShowCommand(ctx))
	return importsCmd
}

func newImportsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFlags(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				batches, err := st.ListImports(cmd.Context(), store.ListOptions{Statuses: statuses, Limit: limit})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					out := make([]api.ImportBatch, 0, len(batches))
					for _, batch := range batches {
						out = append(out, api.FromImportBatch(batch))
					}
					return writeJSON(cmd, out)
				}
				if len(batches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No imports found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderImportsTable(batches))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of batches")
	return cmd
}

func parseStatusFlags(values []string) ([]store.Status, error) {
	var statuses []store.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := store.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func renderImportsTable(batches []*store.ImportBatch) string {
	rows := make([][]string, 0, len(batches))
	var items, processed, duplicates, errs int
	for _, batch := range batches {
		rows = append(rows, []string{
			shortID(batch.ID),
			statusTitle(string(batch.Status)),
			batch.Source,
			formatCount(batch.ItemCount),
			formatCount(batch.Processed),
			formatCount(batch.Duplicates),
			formatCount(batch.Errors),
			formatTimestamp(batch.CreatedAt),
		})
		items += batch.ItemCount
		processed += batch.Processed
		duplicates += batch.Duplicates
		errs += batch.Errors
	}
	footer := []string{"", "", "Total", formatCount(items), formatCount(processed), formatCount(duplicates), formatCount(errs), ""}
	return renderTable(importColumns, rows, footer)
}

func newImportsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <import-id>",
		Short: "Show one batch and the locations it produced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				batch, err := st.GetImport(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("import %s not found", args[0])
					}
					return err
				}
				records, err := st.LocationsByImport(cmd.Context(), batch.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ImportDetail{
						Import:    api.FromImportBatch(batch),
						Locations: api.FromLocations(records),
					})
				}
				renderImportDetail(cmd.OutOrStdout(), batch, records)
				return nil
			})
		},
	}
}

func renderImportDetail(w io.Writer, batch *store.ImportBatch, records []*store.LocationRecord) {
	p := newPrinter()
	fmt.Fprintf(w, "Import:       %s\n", batch.ID)
	fmt.Fprintf(w, "Status:       %s\n", statusTitle(string(batch.Status)))
	fmt.Fprintf(w, "Source:       %s\n", batch.Source)
	fmt.Fprintf(w, "Content hash: %s\n", batch.ContentHash)
	p.Fprintf(w, "Items:        %d\n", batch.ItemCount)
	p.Fprintf(w, "Counts:       processed %d, duplicates %d, errors %d\n", batch.Processed, batch.Duplicates, batch.Errors)
	fmt.Fprintf(w, "Created:      %s (%s)\n", formatTimestamp(batch.CreatedAt), humanize.Time(batch.CreatedAt))
	if batch.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:        %s\n", batch.ErrorMessage)
	}
	summary := api.SummarizeBatch(batch)
	if len(summary.TagList) > 0 {
		fmt.Fprintf(w, "Tags:         %s\n", strings.Join(summary.TagList, ", "))
	}
	if len(records) > 0 {
		fmt.Fprintln(w, renderLocationsTable(records))
	}
}
