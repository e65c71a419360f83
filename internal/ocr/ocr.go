package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"lecturesync/internal/media/frames"
)

// Engine recognizes text on a frame.
type Engine interface {
	Recognize(ctx context.Context, frame frames.Frame) (string, error)
}

// Tesseract shells out to the tesseract binary.
type Tesseract struct {
	Binary   string
	Language string
}

// NewTesseract returns an engine for the given binary and language pack.
func NewTesseract(binary, language string) *Tesseract {
	return &Tesseract{Binary: binary, Language: language}
}

// Recognize implements Engine. Surrounding whitespace is trimmed.
func (t *Tesseract) Recognize(ctx context.Context, frame frames.Frame) (string, error) {
	if frame.Empty() {
		return "", errors.New("ocr: empty frame")
	}
	payload, err := EncodePNG(frame)
	if err != nil {
		return "", err
	}
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = "tesseract"
	}
	args := []string{"stdin", "stdout"}
	if lang := strings.TrimSpace(t.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// EncodePNG converts a grayscale frame into PNG bytes.
func EncodePNG(frame frames.Frame) ([]byte, error) {
	img := &image.Gray{
		Pix:    frame.Pix[:frame.Width*frame.Height],
		Stride: frame.Width,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
