package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tagtrack/internal/api"
	"tagtrack/internal/config"
	"tagtrack/internal/locations"
	"tagtrack/internal/store"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "Show the latest location of every tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				records, err := st.LatestPerTag(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromLocations(records))
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No locations recorded")
					return nil
				}
				sortRecordsByTag(records)
				fmt.Fprintln(cmd.OutOrStdout(), renderLocationsTable(records))
				return nil
			})
		},
	}
	tagsCmd.AddCommand(newTagsHistoryCommand(ctx))
	return tagsCmd
}

func newTagsHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit, page int

	cmd := &cobra.Command{
		Use:   "history <tag>",
		Short: "Show recent locations for one tag, newest first",
		Example: "  tagtrack tags history \"Tag 3\"\n" +
			"  tagtrack tags history 3",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := normalizeTagArg(args[0])
			if !locations.IsValidTag(tag) {
				return fmt.Errorf("invalid tag %q (expected \"Tag <n>\")", args[0])
			}
			if limit <= 0 || page <= 0 {
				return fmt.Errorf("--limit and --page must be positive")
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				records, err := st.LocationsByTag(cmd.Context(), tag, limit, (page-1)*limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.FromLocations(records))
				}
				if len(records) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No locations recorded for %s\n", tag)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderLocationsTable(records))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of locations")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page of results to show")
	return cmd
}

// normalizeTagArg accepts "Tag 3" or a bare "3".
func normalizeTagArg(arg string) string {
	if locations.IsValidTag("Tag " + arg) {
		return "Tag " + arg
	}
	return arg
}

func sortRecordsByTag(records []*store.LocationRecord) {
	tags := make([]string, 0, len(records))
	byTag := make(map[string]*store.LocationRecord, len(records))
	for _, record := range records {
		tags = append(tags, record.SubjectTag)
		byTag[record.SubjectTag] = record
	}
	locations.SortTags(tags)
	for i, tag := range tags {
		records[i] = byTag[tag]
	}
}

func renderLocationsTable(records []*store.LocationRecord) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.SubjectTag,
			formatCoordinate(record.Latitude),
			formatCoordinate(record.Longitude),
			fmt.Sprintf("%.1f", record.Accuracy),
			formatTimestamp(record.ObservedAt),
			yesNo(record.IsInaccurate),
		})
	}
	return renderTable(locationColumns, rows, nil)
}
