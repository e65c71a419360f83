package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDownload marks a failed video retrieval after all retry attempts.
	ErrDownload = errors.New("download error")
	// ErrIntegrity marks a video whose decoded frame count is below the expected count.
	ErrIntegrity = errors.New("integrity error")
	// ErrDecode marks a video that cannot be opened or read at all.
	ErrDecode = errors.New("decode error")
	// ErrMissingInput marks an absent slide catalog or timeline file for a course/semester.
	ErrMissingInput = errors.New("missing input")
	// ErrNoMatch marks a matcher or aligner lookup without a candidate above threshold.
	ErrNoMatch = errors.New("no match")
	// ErrOutOfWindow marks an aligner lookup without a candidate inside the time window.
	ErrOutOfWindow = errors.New("out of window")
	// ErrMalformedStore marks an unreadable top-level calendar table or timeline store.
	ErrMalformedStore = errors.New("malformed store")
	ErrExternalTool   = errors.New("external tool error")
	ErrConfiguration  = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsClipAbandon reports whether err means the current clip should be left for a
// future run while the rest of the batch continues.
func IsClipAbandon(err error) bool {
	return errors.Is(err, ErrDownload) || errors.Is(err, ErrIntegrity) || errors.Is(err, ErrDecode)
}

// IsSkippable reports whether err means the current course/semester should be
// skipped while other courses continue.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

// IsNonFatal reports whether err is a diagnostic outcome that leaves fields blank.
func IsNonFatal(err error) bool {
	return errors.Is(err, ErrNoMatch) || errors.Is(err, ErrOutOfWindow)
}

// Kind returns a short classification label for ledgers and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDownload):
		return "download"
	case errors.Is(err, ErrIntegrity):
		return "integrity"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	case errors.Is(err, ErrOutOfWindow):
		return "out_of_window"
	case errors.Is(err, ErrMalformedStore):
		return "malformed_store"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
