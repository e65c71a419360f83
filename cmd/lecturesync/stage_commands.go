package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lecturesync/internal/ledger"
	"lecturesync/internal/logging"
	"lecturesync/internal/preflight"
	"lecturesync/internal/services"
	"lecturesync/internal/workflow"
)

type stageFlags struct {
	courses       []string
	semesters     []string
	jsonOutput    bool
	skipPreflight bool
}

func (f *stageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.courses, "course", nil, "Limit to these course IDs (repeatable; overrides courses.ids)")
	cmd.Flags().StringSliceVar(&f.semesters, "semester", nil, "Limit to these semester labels (repeatable)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
	cmd.Flags().BoolVar(&f.skipPreflight, "skip-preflight", false, "Start even when dependency or directory checks fail")
}

func newStageCommands(ctx *commandContext) []*cobra.Command {
	specs := []struct {
		stage workflow.Stage
		short string
	}{
		{workflow.StageExtract, "Scan lecture videos and write raw slide timelines"},
		{workflow.StageMatch, "Annotate extracted timelines with slide-catalog matches"},
		{workflow.StageDurations, "Write per-segment durations and per-section totals"},
		{workflow.StageAlign, "Annotate calendar entries with the last covered slide"},
	}
	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		flags := &stageFlags{}
		cmd := &cobra.Command{
			Use:   string(spec.stage),
			Short: spec.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStages(cmd, ctx, flags, []workflow.Stage{spec.stage})
			},
		}
		flags.register(cmd)
		cmds = append(cmds, cmd)
	}
	return cmds
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	flags := &stageFlags{}
	var stageNames []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, match, durations, and align in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := workflow.ParseStages(stageNames)
			if err != nil {
				return err
			}
			return runStages(cmd, ctx, flags, stages)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&stageNames, "stages", nil, "Subset of stages to run (extract,match,durations,align)")
	return cmd
}

func runStages(cmd *cobra.Command, ctx *commandContext, flags *stageFlags, stages []workflow.Stage) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if len(flags.courses) > 0 {
		cfg.Courses.IDs = flags.courses
	}
	if len(flags.semesters) > 0 {
		cfg.Courses.Semesters = flags.semesters
	}

	logger, err := ctx.newLogger(cmd)
	if err != nil {
		return err
	}

	if needsPreflight(stages) && !flags.skipPreflight {
		if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
			names := make([]string, 0, len(failed))
			for _, r := range failed {
				names = append(names, fmt.Sprintf("%s: %s", r.Name, r.Detail))
			}
			return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(names, "; "), nil)
		}
	}

	runID := ledger.NewRunID()
	return ctx.withLedger(func(store *ledger.Store) error {
		if n, err := store.MarkInterrupted(cmd.Context()); err != nil {
			logger.Warn("ledger cleanup failed", logging.Error(err))
		} else if n > 0 {
			logger.Info("marked interrupted clip attempts", logging.Int64("count", n))
		}
		mgr := workflow.NewManager(cfg, logger, workflow.WithLedger(store), workflow.WithRunID(runID))
		summary, runErr := mgr.Run(cmd.Context(), stages)
		if flags.jsonOutput {
			if err := writeJSON(cmd, newSummaryView(summary)); err != nil {
				return err
			}
		} else {
			printf(cmd.OutOrStdout(), "%s", renderSummary(summary))
		}
		if runErr != nil {
			if errors.Is(runErr, services.ErrMalformedStore) {
				return fmt.Errorf("run %s stopped: %w", runID, runErr)
			}
			return runErr
		}
		return nil
	})
}

func needsPreflight(stages []workflow.Stage) bool {
	for _, stage := range stages {
		if stage == workflow.StageExtract {
			return true
		}
	}
	return false
}
