package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	NBReadFrames string `json:"nb_read_frames"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// VideoInfo summarizes the first video stream.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int64
}

// Duration returns the clip length derived from frame count and rate, which
// is how timeline finalization measures clip ends.
func (v VideoInfo) Duration() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.FrameCount) / v.FPS
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	return run(ctx, binary, path, "-show_format", "-show_streams")
}

// CountFrames decodes the first video stream and returns the number of frames
// actually read. Truncated or corrupt files report fewer frames than their
// header claims.
func CountFrames(ctx context.Context, binary string, path string) (int64, error) {
	result, err := run(ctx, binary, path, "-count_frames", "-select_streams", "v:0", "-show_entries", "stream=nb_read_frames")
	if err != nil {
		return 0, err
	}
	if len(result.Streams) == 0 {
		return 0, errors.New("ffprobe count frames: no video stream")
	}
	count := parseFloat(result.Streams[0].NBReadFrames)
	if math.IsNaN(count) || count < 0 {
		return 0, fmt.Errorf("ffprobe count frames: invalid value %q", result.Streams[0].NBReadFrames)
	}
	return int64(count), nil
}

func run(ctx context.Context, binary, path string, args ...string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	full := append([]string{"-v", "error", "-hide_banner"}, args...)
	full = append(full, "-of", "json", "--", path)
	cmd := exec.CommandContext(ctx, binary, full...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream, if any.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// Video summarizes the first video stream. The frame count falls back to
// duration times rate when the container does not record nb_frames.
func (r Result) Video() (VideoInfo, error) {
	stream, ok := r.VideoStream()
	if !ok {
		return VideoInfo{}, errors.New("no video stream")
	}
	info := VideoInfo{Width: stream.Width, Height: stream.Height, FPS: stream.FPS()}
	if info.FPS <= 0 {
		return VideoInfo{}, fmt.Errorf("invalid frame rate %q", stream.AvgFrameRate)
	}
	if frames := parseFloat(stream.NBFrames); frames > 0 && !math.IsNaN(frames) {
		info.FrameCount = int64(frames)
		return info, nil
	}
	duration := parseFloat(stream.Duration)
	if duration <= 0 || math.IsNaN(duration) {
		duration = r.DurationSeconds()
	}
	if duration <= 0 || math.IsNaN(duration) {
		return VideoInfo{}, errors.New("unknown video duration")
	}
	info.FrameCount = int64(math.Round(duration * info.FPS))
	return info, nil
}

// FPS returns the stream's average frame rate, falling back to r_frame_rate.
func (s Stream) FPS() float64 {
	if fps := parseRational(s.AvgFrameRate); fps > 0 {
		return fps
	}
	return parseRational(s.RFrameRate)
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// parseRational handles ffprobe rates such as "30000/1001" and "25".
func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n := parseFloat(num)
	if !found {
		if math.IsNaN(n) {
			return 0
		}
		return n
	}
	d := parseFloat(den)
	if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
