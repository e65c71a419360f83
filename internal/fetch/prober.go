package fetch

import (
	"context"

	"lecturesync/internal/media/ffprobe"
)

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	Binary string
}

// ExpectedFrames implements Prober.
func (p FFprobe) ExpectedFrames(ctx context.Context, path string) (int64, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return 0, err
	}
	info, err := result.Video()
	if err != nil {
		return 0, err
	}
	return info.FrameCount, nil
}

// DecodedFrames implements Prober.
func (p FFprobe) DecodedFrames(ctx context.Context, path string) (int64, error) {
	return ffprobe.CountFrames(ctx, p.Binary, path)
}
