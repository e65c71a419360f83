package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lecturesync/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the clip run ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerClearCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent clip attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				records, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, newLedgerViews(records))
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					printf(out, "No clip attempts recorded\n")
					return nil
				}
				printf(out, "%s\n", renderLedgerTable(records))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of records to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	return cmd
}

func newLedgerClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every ledger record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Removed %d records\n", n)
				return nil
			})
		},
	}
}

type ledgerView struct {
	RunID     string  `json:"run_id"`
	Course    string  `json:"course"`
	Semester  string  `json:"semester"`
	ClipID    string  `json:"clip_id"`
	Stage     string  `json:"stage"`
	Status    string  `json:"status"`
	ErrorKind string  `json:"error_kind,omitempty"`
	Error     string  `json:"error,omitempty"`
	Segments  int     `json:"segments"`
	Duration  float64 `json:"duration_seconds"`
	StartedAt string  `json:"started_at"`
	Elapsed   string  `json:"elapsed,omitempty"`
}

func newLedgerViews(records []ledger.Record) []ledgerView {
	views := make([]ledgerView, 0, len(records))
	for _, r := range records {
		v := ledgerView{
			RunID: r.RunID, Course: r.Course, Semester: r.Semester, ClipID: r.ClipID,
			Stage: r.Stage, Status: string(r.Status), ErrorKind: r.ErrorKind, Error: r.ErrorMessage,
			Segments: r.Segments, Duration: r.Duration,
			StartedAt: r.StartedAt.Format(time.RFC3339),
		}
		if d := r.Elapsed(); d > 0 {
			v.Elapsed = d.Round(time.Millisecond).String()
		}
		views = append(views, v)
	}
	return views
}

func renderLedgerTable(records []ledger.Record) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		elapsed := ""
		if d := r.Elapsed(); d > 0 {
			elapsed = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%s/%s", r.Course, r.Semester),
			r.ClipID,
			string(r.Status),
			r.ErrorKind,
			itoa(r.Segments),
			elapsed,
			shortRunID(r.RunID),
		})
	}
	return renderTable(
		[]string{"Started", "Course", "Clip", "Status", "Error", "Segments", "Elapsed", "Run"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
