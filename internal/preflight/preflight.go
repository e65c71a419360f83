package preflight

import (
	"context"
	"strings"

	"lecturesync/internal/config"
	"lecturesync/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results are reported but never block a run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results,
		CheckDirectoryAccess("Videos directory", cfg.Paths.VideosDir),
		CheckDirectoryAccess("Timelines directory", cfg.Paths.TimelinesDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckReadableDirectory("Slide catalog directory", cfg.Paths.CatalogDir),
		CheckReadableFile("Clip registry", cfg.Paths.ClipRegistry),
	)
	if strings.TrimSpace(cfg.Paths.CalendarFile) != "" {
		results = append(results, CheckWritableFile("Calendar table", cfg.Paths.CalendarFile))
	}
	if cfg.Download.Enabled {
		result := CheckDownloadEndpoint(ctx, cfg.Download.URLTemplate)
		result.Optional = true
		results = append(results, result)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case status.Detail != "":
		result.Detail = status.Detail
	case status.Available:
		result.Detail = status.Command
	}
	return result
}
