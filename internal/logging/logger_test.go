package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lecturesync/internal/config"
	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

func TestNewFromConfigWritesDailyFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("k", "v"))

	path := cfg.LogFilePath(time.Now())
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("log file is not json lines: %v (%q)", err, content)
	}
	if record["msg"] != "file message" || record["k"] != "v" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithCourse(context.Background(), "ai-1")
	ctx = services.WithSemester(ctx, "WS24-25")
	ctx = services.WithClip(ctx, "54629")
	ctx = services.WithStage(ctx, "extract")
	ctx = services.WithRunID(ctx, "run-1")

	log := logging.NewComponentLogger(logging.WithContext(ctx, logger), "extractor")
	log.Info("segment opened", logging.Float64("start", 47.3))

	out := buf.String()
	for _, want := range []string{"[extractor]", "ai-1 WS24-25 · clip 54629 (extract)", "segment opened", "- start: 47.3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "run-1") {
		t.Fatalf("run id should stay out of info console output: %q", out)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))
	if !strings.Contains(buf.String(), `"msg":"json message"`) {
		t.Fatalf("unexpected json output %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = services.Wrap(services.ErrOutOfWindow, "align", "", "no clip within window", nil)
	logging.WarnWithContext(logger, "calendar entry left unchanged", "calendar_no_match", logging.ErrorKind(err))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "calendar_no_match" {
		t.Fatalf("event type missing: %v", record)
	}
	if record[logging.FieldErrorKind] != "out_of_window" {
		t.Fatalf("error kind missing: %v", record)
	}
	if _, ok := record[logging.FieldImpact]; !ok {
		t.Fatalf("impact missing: %v", record)
	}
	if !errors.Is(err, services.ErrOutOfWindow) {
		t.Fatal("marker lost")
	}
}

func TestPruneLogsKeepsActiveAndRecent(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	old := filepath.Join(dir, "lecturesync-2025-01-01.log")
	recent := filepath.Join(dir, "lecturesync-2025-02-28.log")
	active := filepath.Join(dir, "lecturesync-2025-03-01.log")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, recent, active, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := now.AddDate(0, 0, -60)
	for _, p := range []string{old, active, other} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.PruneLogs(logging.NewNop(), dir, 30, active, now)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, p := range []string{recent, active, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}

func TestJSONLoggerWritesDurationsAsSeconds(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("stage complete",
		logging.Duration("stage_duration", 1500*time.Millisecond),
		logging.Seconds("position", 47.3333),
	)
	out := buf.String()
	for _, want := range []string{`"stage_duration":1.5`, `"position":47.33`, `"level":"info"`, `"ts":"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
}
