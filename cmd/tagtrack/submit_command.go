package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tagtrack/internal/api"
	"tagtrack/internal/config"
	"tagtrack/internal/ingest"
	"tagtrack/internal/processor"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

type submitOutput struct {
	Submission api.RecvResponse    `json:"submission"`
	Processing *api.ProcessOutcome `json:"processing,omitempty"`
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var source string
	var md5 string
	var noProcess bool

	cmd := &cobra.Command{
		Use:   "submit <file|->",
		Short: "Submit a JSON payload and process it in-process",
		Long: "Submit reads a JSON document (the batch content) from a file or stdin, " +
			"admits it through the same deduplicating gatekeeper as POST /recv, " +
			"and runs the processor on the new batch.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			return ctx.withManager(cmd.Context(), func(cfg *config.Config, st *store.Store, mgr *workflow.Manager) error {
				gk := ingest.NewGatekeeper(st, nil, cfg.Ingest.DefaultSource, ctx.cliLogger(cfg))
				result, err := gk.Submit(cmd.Context(), ingest.Submission{
					Content: content,
					MD5:     md5,
					Source:  source,
				})
				if err != nil {
					return err
				}
				out := submitOutput{Submission: api.FromRecvResult(result, time.Now())}
				if result.Status == ingest.StatusOK && !noProcess {
					outcome, err := mgr.ProcessNow(cmd.Context(), result.ImportID)
					if err != nil {
						return fmt.Errorf("process %s: %w", result.ImportID, err)
					}
					out.Processing = api.FromOutcome(&outcome)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, out)
				}
				renderSubmit(cmd.OutOrStdout(), result, out.Processing)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source label recorded with the batch")
	cmd.Flags().StringVar(&md5, "md5", "", "Caller-computed content hash to compare")
	cmd.Flags().BoolVar(&noProcess, "no-process", false, "Leave the batch pending for the daemon")
	return cmd
}

func readPayload(cmd *cobra.Command, arg string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(arg) == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return json.RawMessage(data), nil
}

func renderSubmit(w io.Writer, result ingest.Result, outcome *api.ProcessOutcome) {
	p := newPrinter()
	fmt.Fprintf(w, "Import %s: %s\n", result.ImportID, result.Status)
	p.Fprintf(w, "Items: %d\n", result.ItemsCount)
	fmt.Fprintf(w, "Content hash: %s\n", result.ComputedHash)
	if result.HashMatch != nil {
		fmt.Fprintf(w, "Provided hash matches: %s\n", yesNo(*result.HashMatch))
	}
	if outcome == nil {
		return
	}
	fmt.Fprintf(w, "Result: %s\n", statusTitle(outcome.Status))
	p.Fprintf(w, "Processed %d, duplicates %d, errors %d, ignored %d\n",
		outcome.Processed, outcome.Duplicates, outcome.Errors, outcome.Ignored)
	if outcome.ErrorMessage != "" {
		fmt.Fprintf(w, "Errors: %s\n", outcome.ErrorMessage)
	}
}

func renderOutcome(w io.Writer, outcome processor.Outcome) {
	p := newPrinter()
	switch {
	case outcome.Skipped:
		fmt.Fprintf(w, "Import %s already %s; nothing to do\n", outcome.ImportID, outcome.Status)
		return
	case outcome.ParseFailed:
		fmt.Fprintf(w, "Import %s content did not parse and stays pending: %s\n", outcome.ImportID, outcome.ErrorMessage)
		return
	}
	fmt.Fprintf(w, "Import %s: %s\n", outcome.ImportID, statusTitle(string(outcome.Status)))
	p.Fprintf(w, "Expected %d, processed %d, duplicates %d, errors %d, ignored %d\n",
		outcome.TotalExpected, outcome.Processed, outcome.Duplicates, outcome.Errors, outcome.Ignored)
	if outcome.ErrorMessage != "" {
		fmt.Fprintf(w, "Errors: %s\n", outcome.ErrorMessage)
	}
}
