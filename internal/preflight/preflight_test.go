package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"lecturesync/internal/config"
	"lecturesync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "clips.json")
	if err := os.WriteFile(f, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckReadableFile("registry", f); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckReadableFile("registry", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckWritableFile("calendar", filepath.Join(dir, "missing.json")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
	if result := CheckReadableFile("registry", ""); result.Passed || result.Detail != "not configured" {
		t.Fatalf("unconfigured = %+v", result)
	}
}

func TestCheckDownloadEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if result := CheckDownloadEndpoint(context.Background(), srv.URL+"/clips/{clip_id}.mp4"); !result.Passed {
		t.Fatalf("expected reachable, got: %s", result.Detail)
	}
	if result := CheckDownloadEndpoint(context.Background(), ""); result.Passed {
		t.Fatal("expected failure for missing template")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithConfig(func(c *config.Config) {
		c.Tools.TesseractLang = ""
	}))
	if err := os.MkdirAll(cfg.Paths.CatalogDir, 0o755); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, cfg.Paths.ClipRegistry, []byte("{}"))
	testsupport.WriteFile(t, cfg.Paths.CalendarFile, []byte("{}"))

	results := RunAll(context.Background(), cfg)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	names := map[string]bool{}
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"FFmpeg", "FFprobe", "Tesseract", "Tesseract language", "Clip registry", "Calendar table"} {
		if !names[want] {
			t.Fatalf("missing check %q in %+v", want, results)
		}
	}
}

func TestRunAll_ReportsMissingInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithConfig(func(c *config.Config) {
		c.Tools.TesseractLang = ""
		c.Paths.CalendarFile = ""
	}))

	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 2 {
		t.Fatalf("failed = %+v", failed)
	}
	if failed[0].Name != "Slide catalog directory" || failed[1].Name != "Clip registry" {
		t.Fatalf("failed = %+v", failed)
	}
}
