package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCourses()
	c.normalizeTools()
	if err := c.normalizeExtraction(); err != nil {
		return err
	}
	c.normalizeAlignment()
	c.normalizeDownload()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if c.Paths.VideosDir == "" {
		if value, ok := os.LookupEnv("VIDEOS_DIR"); ok {
			c.Paths.VideosDir = strings.TrimSpace(value)
		}
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.videos_dir", &c.Paths.VideosDir},
		{"paths.timelines_dir", &c.Paths.TimelinesDir},
		{"paths.catalog_dir", &c.Paths.CatalogDir},
		{"paths.clip_registry", &c.Paths.ClipRegistry},
		{"paths.calendar_file", &c.Paths.CalendarFile},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.state_dir", &c.Paths.StateDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeCourses() {
	if len(c.Courses.IDs) == 0 {
		if value, ok := os.LookupEnv("COURSE_IDS"); ok {
			c.Courses.IDs = strings.Split(value, ",")
		}
	}
	c.Courses.IDs = compactList(c.Courses.IDs)
	c.Courses.Semesters = compactList(c.Courses.Semesters)
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = fallback(c.Tools.FFmpeg, defaultFFmpeg)
	c.Tools.FFprobe = fallback(c.Tools.FFprobe, defaultFFprobe)
	c.Tools.Tesseract = fallback(c.Tools.Tesseract, defaultTesseract)
	c.Tools.TesseractLang = fallback(c.Tools.TesseractLang, defaultTesseractLang)
}

func (c *Config) normalizeExtraction() error {
	if value, ok := os.LookupEnv("FRAME_PROCESSING_SLEEP_TIME"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("FRAME_PROCESSING_SLEEP_TIME: %w", err)
		}
		c.Extraction.FrameSleepSeconds = parsed
	}
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = defaultWorkers
	}
	return nil
}

func (c *Config) normalizeAlignment() {
	c.Alignment.TieBreak = strings.ToLower(strings.TrimSpace(c.Alignment.TieBreak))
	if c.Alignment.TieBreak == "" {
		c.Alignment.TieBreak = TieBreakNearest
	}
	c.Alignment.SkipFirstClipCourses = compactList(c.Alignment.SkipFirstClipCourses)
}

func (c *Config) normalizeDownload() {
	c.Download.URLTemplate = strings.TrimSpace(c.Download.URLTemplate)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

func compactList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
