package fetch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lecturesync/internal/fetch"
	"lecturesync/internal/logging"
)

func TestCleanStalePartials(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

	write := func(name string, age time.Duration) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		mod := now.Add(-age)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes %s: %v", name, err)
		}
		return path
	}

	stale := write("100.mp4.part", 48*time.Hour)
	fresh := write("101.mp4.part", time.Hour)
	video := write("102.mp4", 72*time.Hour)

	result := fetch.CleanStalePartials(dir, 24*time.Hour, now, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("removed = %v, want [%s]", result.Removed, stale)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale partial still present: %v", err)
	}
	for _, keep := range []string{fresh, video} {
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s should remain: %v", keep, err)
		}
	}
}

func TestCleanStalePartialsMissingDir(t *testing.T) {
	result := fetch.CleanStalePartials(filepath.Join(t.TempDir(), "absent"), time.Hour, time.Now(), logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("missing dir result = %+v", result)
	}
	if got := fetch.CleanStalePartials("  ", time.Hour, time.Now(), nil); len(got.Removed) != 0 {
		t.Fatalf("blank dir result = %+v", got)
	}
}
