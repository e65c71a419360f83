package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"lecturesync/internal/media/ffprobe"
)

// Source yields grayscale frames from a video.
type Source interface {
	// Info returns the video geometry, frame rate, and frame count.
	Info() ffprobe.VideoInfo
	// FrameAt returns the frame displayed at the given second. ok is false
	// when the timestamp lies beyond the last decodable frame.
	FrameAt(ctx context.Context, seconds float64) (frame Frame, ok bool, err error)
	Close() error
}

// FFmpegSource reads frames by invoking ffmpeg once per request.
type FFmpegSource struct {
	ffmpeg string
	path   string
	info   ffprobe.VideoInfo
}

// OpenFFmpeg probes path and returns a Source backed by the ffmpeg binary.
func OpenFFmpeg(ctx context.Context, ffmpegBin, ffprobeBin, path string) (*FFmpegSource, error) {
	result, err := ffprobe.Inspect(ctx, ffprobeBin, path)
	if err != nil {
		return nil, err
	}
	info, err := result.Video()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("probe %s: invalid geometry %dx%d", path, info.Width, info.Height)
	}
	bin := strings.TrimSpace(ffmpegBin)
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegSource{ffmpeg: bin, path: path, info: info}, nil
}

// Info implements Source.
func (s *FFmpegSource) Info() ffprobe.VideoInfo {
	return s.info
}

// FrameAt implements Source.
func (s *FFmpegSource) FrameAt(ctx context.Context, seconds float64) (Frame, bool, error) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= s.info.Duration() {
		return Frame{}, false, nil
	}
	args := []string{
		"-v", "error", "-nostdin",
		"-ss", strconv.FormatFloat(seconds, 'f', 3, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "rawvideo", "-pix_fmt", "gray",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Frame{}, false, ctxErr
		}
		return Frame{}, false, fmt.Errorf("ffmpeg frame at %.3fs: %w: %s", seconds, err, strings.TrimSpace(stderr.String()))
	}
	size := s.info.Width * s.info.Height
	if stdout.Len() < size {
		return Frame{}, false, nil
	}
	return Frame{Width: s.info.Width, Height: s.info.Height, Pix: stdout.Bytes()[:size]}, true, nil
}

// Close implements Source. Each request runs its own process, so there is
// nothing to release.
func (s *FFmpegSource) Close() error {
	return nil
}

// ErrNoFrames reports a video that yielded no frame at its start.
var ErrNoFrames = errors.New("no decodable frames")
