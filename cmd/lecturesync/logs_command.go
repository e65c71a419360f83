package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lecturesync/internal/logging"
	"lecturesync/internal/logs"
	"lecturesync/internal/services"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var date string
	var course string
	var semester string
	var clip string
	var stage string
	var runID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daily run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day := time.Now()
			if strings.TrimSpace(date) != "" {
				day, err = time.ParseInLocation("2006-01-02", strings.TrimSpace(date), time.Local)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "parse date", "expected YYYY-MM-DD", err)
				}
			}
			path := cfg.LogFilePath(day)
			if path == "" {
				return errors.New("file logging is disabled (paths.log_dir is empty)")
			}

			match := map[string]string{}
			for key, value := range map[string]string{
				logging.FieldCourse:   course,
				logging.FieldSemester: semester,
				logging.FieldClipID:   clip,
				logging.FieldStage:    stage,
				logging.FieldRunID:    runID,
			} {
				if v := strings.TrimSpace(value); v != "" {
					match[key] = v
				}
			}

			out := cmd.OutOrStdout()
			emit := func(line string) {
				if logs.Filter(line, match) {
					fmt.Fprintln(out, line)
				}
			}

			// Filtering happens after the tail, so read the whole file when a
			// filter is set and trim the matches instead.
			limit := lines
			if len(match) > 0 {
				limit = 0
			}
			tail, offset, err := logs.Tail(path, limit)
			if err != nil {
				return err
			}
			var shown []string
			for _, line := range tail {
				if logs.Filter(line, match) {
					shown = append(shown, line)
				}
			}
			if lines > 0 && len(shown) > lines {
				shown = shown[len(shown)-lines:]
			}
			for _, line := range shown {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(shown) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 500*time.Millisecond, emit)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&date, "date", "", "Log day to read as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&course, "course", "", "Only show records for this course")
	cmd.Flags().StringVar(&semester, "semester", "", "Only show records for this semester")
	cmd.Flags().StringVar(&clip, "clip", "", "Only show records for this clip ID")
	cmd.Flags().StringVar(&stage, "stage", "", "Only show records for this stage")
	cmd.Flags().StringVar(&runID, "run", "", "Only show records for this run ID")
	return cmd
}
