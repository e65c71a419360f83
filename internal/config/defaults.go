package config

const (
	defaultVideosDir             = "~/.local/share/lecturesync/videos"
	defaultTimelinesDir          = "~/.local/share/lecturesync/timelines"
	defaultCatalogDir            = "~/.local/share/lecturesync/slides"
	defaultClipRegistry          = "~/.local/share/lecturesync/all_courses_clips.json"
	defaultCalendarFile          = "~/.local/share/lecturesync/current-sem.json"
	defaultLogDir                = "~/.local/share/lecturesync/logs"
	defaultStateDir              = "~/.local/share/lecturesync/state"
	defaultFFmpeg                = "ffmpeg"
	defaultFFprobe               = "ffprobe"
	defaultTesseract             = "tesseract"
	defaultTesseractLang         = "eng"
	defaultSampleInterval        = 10.0
	defaultDiffThreshold         = 4000.0
	defaultReferenceWidth        = 1280
	defaultReferenceHeight       = 720
	defaultWatermarkFraction     = 0.05
	defaultExtensionSimilarity   = 60.0
	defaultFrameSleepSeconds     = 0.1
	defaultWorkers               = 1
	defaultMinTextLength         = 100
	defaultScoreThreshold        = 70.0
	defaultWindowHours           = 24.0
	defaultDownloadAttempts      = 5
	defaultInitialBackoffSeconds = 2
	defaultMaxBackoffSeconds     = 60
	defaultDownloadTimeout       = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Tie-break policies for calendar alignment.
const (
	TieBreakNearest = "nearest"
	TieBreakFirst   = "first"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideosDir:    defaultVideosDir,
			TimelinesDir: defaultTimelinesDir,
			CatalogDir:   defaultCatalogDir,
			ClipRegistry: defaultClipRegistry,
			CalendarFile: defaultCalendarFile,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
		},
		Tools: Tools{
			FFmpeg:        defaultFFmpeg,
			FFprobe:       defaultFFprobe,
			Tesseract:     defaultTesseract,
			TesseractLang: defaultTesseractLang,
		},
		Extraction: Extraction{
			SampleIntervalSeconds: defaultSampleInterval,
			DiffThreshold:         defaultDiffThreshold,
			ReferenceWidth:        defaultReferenceWidth,
			ReferenceHeight:       defaultReferenceHeight,
			WatermarkFraction:     defaultWatermarkFraction,
			ExtensionSimilarity:   defaultExtensionSimilarity,
			FrameSleepSeconds:     defaultFrameSleepSeconds,
			Workers:               defaultWorkers,
		},
		Matching: Matching{
			MinTextLength:  defaultMinTextLength,
			ScoreThreshold: defaultScoreThreshold,
		},
		Alignment: Alignment{
			WindowHours:          defaultWindowHours,
			TieBreak:             TieBreakNearest,
			SkipFirstClipCourses: []string{"ai-1", "ai-2"},
			SectionCompletion:    true,
		},
		Download: Download{
			MaxAttempts:           defaultDownloadAttempts,
			InitialBackoffSeconds: defaultInitialBackoffSeconds,
			MaxBackoffSeconds:     defaultMaxBackoffSeconds,
			TimeoutSeconds:        defaultDownloadTimeout,
			VerifyIntegrity:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
