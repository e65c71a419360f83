package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.videos_dir":    c.Paths.VideosDir,
		"paths.timelines_dir": c.Paths.TimelinesDir,
		"paths.state_dir":     c.Paths.StateDir,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	e := c.Extraction
	if e.SampleIntervalSeconds <= 0 {
		return errors.New("extraction.sample_interval_seconds must be positive")
	}
	if e.DiffThreshold <= 0 {
		return errors.New("extraction.diff_threshold must be positive")
	}
	if e.ReferenceWidth < 0 || e.ReferenceHeight < 0 {
		return errors.New("extraction.reference_width and reference_height must be >= 0")
	}
	if e.WatermarkFraction < 0 || e.WatermarkFraction >= 1 {
		return errors.New("extraction.watermark_fraction must be in [0, 1)")
	}
	if e.ExtensionSimilarity < 0 || e.ExtensionSimilarity > 100 {
		return errors.New("extraction.extension_similarity must be between 0 and 100")
	}
	if e.FrameSleepSeconds < 0 {
		return errors.New("extraction.frame_sleep_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.MinTextLength < 0 {
		return errors.New("matching.min_text_length must be >= 0")
	}
	if c.Matching.ScoreThreshold < 0 || c.Matching.ScoreThreshold > 100 {
		return errors.New("matching.score_threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if c.Alignment.WindowHours <= 0 {
		return errors.New("alignment.window_hours must be positive")
	}
	switch c.Alignment.TieBreak {
	case TieBreakNearest, TieBreakFirst:
	default:
		return fmt.Errorf("alignment.tie_break: unsupported value %q (use %q or %q)", c.Alignment.TieBreak, TieBreakNearest, TieBreakFirst)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if !c.Download.Enabled {
		return nil
	}
	if c.Download.URLTemplate == "" {
		return errors.New("download.url_template must be set when download.enabled is true")
	}
	if !strings.Contains(c.Download.URLTemplate, "{clip_id}") {
		return errors.New("download.url_template must contain the {clip_id} placeholder")
	}
	if c.Download.MaxAttempts <= 0 {
		return errors.New("download.max_attempts must be positive")
	}
	if c.Download.InitialBackoffSeconds < 0 || c.Download.MaxBackoffSeconds < c.Download.InitialBackoffSeconds {
		return errors.New("download backoff must satisfy 0 <= initial_backoff_seconds <= max_backoff_seconds")
	}
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}
