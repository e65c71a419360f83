package frames

import (
	"math"
)

// Frame is an 8-bit grayscale image stored row-major.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height
}

// CropBottom drops the bottom fraction of rows (the watermark band). The
// returned frame shares pixel storage with f.
func (f Frame) CropBottom(fraction float64) Frame {
	if f.Empty() || fraction <= 0 {
		return f
	}
	if fraction >= 1 {
		return Frame{Width: f.Width}
	}
	keep := f.Height - int(float64(f.Height)*fraction)
	if keep < 0 {
		keep = 0
	}
	return Frame{Width: f.Width, Height: keep, Pix: f.Pix[:keep*f.Width]}
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := Frame{Width: f.Width, Height: f.Height}
	if f.Pix != nil {
		out.Pix = append([]uint8(nil), f.Pix...)
	}
	return out
}

// L2Norm returns the Euclidean norm of the per-pixel difference between a and
// b. Frames of different geometry are maximally different.
func L2Norm(a, b Frame) float64 {
	if a.Width != b.Width || a.Height != b.Height {
		return math.Inf(1)
	}
	n := a.Width * a.Height
	var sum uint64
	for i := 0; i < n; i++ {
		d := int(a.Pix[i]) - int(b.Pix[i])
		sum += uint64(d * d)
	}
	return math.Sqrt(float64(sum))
}

// ScaledThreshold adapts a difference threshold calibrated at the reference
// resolution to a frame of width x height. The L2 norm of uniformly spread
// noise grows with the square root of the pixel count. A zero reference
// disables scaling.
func ScaledThreshold(base float64, width, height, refWidth, refHeight int) float64 {
	if refWidth <= 0 || refHeight <= 0 || width <= 0 || height <= 0 {
		return base
	}
	ratio := float64(width*height) / float64(refWidth*refHeight)
	return base * math.Sqrt(ratio)
}
