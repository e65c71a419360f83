package ocr

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"lecturesync/internal/media/frames"
)

func TestEncodePNGRoundTripsPixels(t *testing.T) {
	frame := frames.NewFrame(3, 2)
	for i := range frame.Pix {
		frame.Pix[i] = uint8(i * 40)
	}
	payload, err := EncodePNG(frame)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestRecognizeRejectsEmptyFrame(t *testing.T) {
	engine := NewTesseract("tesseract", "eng")
	if _, err := engine.Recognize(context.Background(), frames.Frame{}); err == nil {
		t.Fatal("expected error for empty frame")
	}
}

func TestRecognizeReportsMissingBinary(t *testing.T) {
	engine := NewTesseract("/nonexistent/tesseract", "")
	if _, err := engine.Recognize(context.Background(), frames.NewFrame(2, 2)); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
