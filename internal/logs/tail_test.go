package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lecturesync/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lecturesync-2024-10-15.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Tail(path, 2)
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}

	lines, _, err = logs.Tail(path, 10)
	if err != nil || len(lines) != 3 || lines[0] != "a" {
		t.Fatalf("short file tail = %#v, %v", lines, err)
	}
}

func TestTailLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "a\nb\npart")

	lines, offset, err := logs.Tail(path, 5)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(lines) != 2 || offset != 4 {
		t.Fatalf("lines = %#v, offset = %d", lines, offset)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("ial\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	lines, _, err = logs.ReadFrom(path, offset)
	if err != nil || len(lines) != 1 || lines[0] != "partial" {
		t.Fatalf("read from = %#v, %v", lines, err)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, offset, err := logs.Tail(filepath.Join(t.TempDir(), "none.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("missing file = %#v, %d, %v", lines, offset, err)
	}
}

func TestReadFromRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "x\n")
	lines, offset, err := logs.ReadFrom(path, 500)
	if err != nil || len(lines) != 1 || offset != 2 {
		t.Fatalf("read = %#v, %d, %v", lines, offset, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Tail(path, 1)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("followed lines = %#v", got)
	}
}

func TestFilter(t *testing.T) {
	line := `{"level":"WARN","msg":"clip abandoned","clip_id":"123","course":"ai-1","segments":4}`
	cases := []struct {
		name  string
		match map[string]string
		want  bool
	}{
		{"empty filter", nil, true},
		{"clip", map[string]string{"clip_id": "123"}, true},
		{"clip and course", map[string]string{"clip_id": "123", "course": "ai-1"}, true},
		{"numeric field", map[string]string{"segments": "4"}, true},
		{"other clip", map[string]string{"clip_id": "124"}, false},
		{"absent field", map[string]string{"semester": "WS24-25"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := logs.Filter(line, tc.match); got != tc.want {
				t.Fatalf("Filter = %v, want %v", got, tc.want)
			}
		})
	}
	if logs.Filter("not json", map[string]string{"clip_id": "123"}) {
		t.Fatal("non-JSON line matched")
	}
}

func TestTailZeroLimitReturnsAll(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")
	lines, offset, err := logs.Tail(path, 0)
	if err != nil || len(lines) != 3 || offset != 6 {
		t.Fatalf("tail all = %#v, %d, %v", lines, offset, err)
	}
}
