// Package frames reads grayscale video frames and measures how much two frames
// differ.
//
// A Source yields frames at arbitrary timestamps; FFmpegSource implements it by
// asking ffmpeg for a single raw gray frame per request. Change detection works
// on the pixel-wise L2 norm between frames after the bottom watermark band has
// been cropped away.
package frames
