package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	VideosDir    string `toml:"videos_dir"`
	TimelinesDir string `toml:"timelines_dir"`
	CatalogDir   string `toml:"catalog_dir"`
	ClipRegistry string `toml:"clip_registry"`
	CalendarFile string `toml:"calendar_file"`
	LogDir       string `toml:"log_dir"`
	StateDir     string `toml:"state_dir"`
}

// Courses selects which courses (and optionally semesters) a run covers.
type Courses struct {
	IDs       []string `toml:"ids"`
	Semesters []string `toml:"semesters"`
}

// Tools names the external binaries used for decoding and OCR.
type Tools struct {
	FFmpeg        string `toml:"ffmpeg"`
	FFprobe       string `toml:"ffprobe"`
	Tesseract     string `toml:"tesseract"`
	TesseractLang string `toml:"tesseract_lang"`
}

// Extraction contains the online scan parameters.
type Extraction struct {
	SampleIntervalSeconds float64 `toml:"sample_interval_seconds"`
	// DiffThreshold is the L2 pixel-difference norm above which a sampled
	// frame counts as changed, calibrated for the reference resolution.
	DiffThreshold       float64 `toml:"diff_threshold"`
	ReferenceWidth      int     `toml:"reference_width"`
	ReferenceHeight     int     `toml:"reference_height"`
	WatermarkFraction   float64 `toml:"watermark_fraction"`
	ExtensionSimilarity float64 `toml:"extension_similarity"`
	FrameSleepSeconds   float64 `toml:"frame_sleep_seconds"`
	Workers             int     `toml:"workers"`
}

// Matching contains the slide-content matcher thresholds.
type Matching struct {
	MinTextLength  int     `toml:"min_text_length"`
	ScoreThreshold float64 `toml:"score_threshold"`
}

// Alignment contains the calendar alignment policy.
type Alignment struct {
	WindowHours          float64  `toml:"window_hours"`
	TieBreak             string   `toml:"tie_break"`
	SkipFirstClipCourses []string `toml:"skip_first_clip_courses"`
	SectionCompletion    bool     `toml:"section_completion"`
}

// Download contains the video retrieval handoff settings.
type Download struct {
	Enabled               bool   `toml:"enabled"`
	URLTemplate           string `toml:"url_template"`
	MaxAttempts           int    `toml:"max_attempts"`
	InitialBackoffSeconds int    `toml:"initial_backoff_seconds"`
	MaxBackoffSeconds     int    `toml:"max_backoff_seconds"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	VerifyIntegrity       bool   `toml:"verify_integrity"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for lecturesync.
//
// Configuration sections by subsystem:
//   - Paths: video cache, timeline outputs, catalogs, registry, calendar table
//   - Courses: course and semester selection
//   - Tools: ffmpeg/ffprobe/tesseract binaries
//   - Extraction: sampling, change detection, and segment merging knobs
//   - Matching: slide catalog matching thresholds
//   - Alignment: calendar window and tie-break policy
//   - Download: retrieval retries and integrity verification
//   - Logging: log format, level, and file retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Courses    Courses    `toml:"courses"`
	Tools      Tools      `toml:"tools"`
	Extraction Extraction `toml:"extraction"`
	Matching   Matching   `toml:"matching"`
	Alignment  Alignment  `toml:"alignment"`
	Download   Download   `toml:"download"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lecturesync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lecturesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories lecturesync writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.VideosDir, c.Paths.TimelinesDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SampleInterval returns the extraction sampling period.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Extraction.SampleIntervalSeconds * float64(time.Second))
}

// FrameSleep returns the optional throttle delay between samples.
func (c *Config) FrameSleep() time.Duration {
	return time.Duration(c.Extraction.FrameSleepSeconds * float64(time.Second))
}

// AlignmentWindow returns the calendar matching window.
func (c *Config) AlignmentWindow() time.Duration {
	return time.Duration(c.Alignment.WindowHours * float64(time.Hour))
}

// LedgerPath returns the SQLite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LogFilePath returns the daily JSON log file for the given day, or empty when
// file logging is off.
func (c *Config) LogFilePath(day time.Time) string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "lecturesync-"+day.Format("2006-01-02")+".log")
}

// CourseSelected reports whether the course passes the configured filter.
// An empty filter selects every course.
func (c *Config) CourseSelected(courseID string) bool {
	return selected(c.Courses.IDs, courseID)
}

// SemesterSelected reports whether the semester passes the configured filter.
func (c *Config) SemesterSelected(semester string) bool {
	return selected(c.Courses.Semesters, semester)
}

func selected(filter []string, value string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, candidate := range filter {
		if candidate == value {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
