package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lecturesync/internal/ledger"
	"lecturesync/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dependency, directory, and ledger status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				lines = append(lines, renderStatusLine(r.Name, resultKind(r), r.Detail, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Ledger", colorize)...)
			err = ctx.withLedger(func(store *ledger.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				for _, status := range []ledger.Status{
					ledger.StatusCompleted, ledger.StatusSkipped, ledger.StatusAbandoned,
					ledger.StatusFailed, ledger.StatusRunning,
				} {
					kind := statusInfo
					switch {
					case status == ledger.StatusCompleted && stats[status] > 0:
						kind = statusOK
					case (status == ledger.StatusAbandoned || status == ledger.StatusFailed) && stats[status] > 0:
						kind = statusWarn
					}
					lines = append(lines, renderStatusLine(titleCase(string(status)), kind, fmt.Sprintf("%d", stats[status]), colorize))
				}
				return nil
			})
			if err != nil {
				lines = append(lines, renderStatusLine("Ledger", statusError, err.Error(), colorize))
			}

			printf(out, "%s\n", strings.Join(lines, "\n"))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
