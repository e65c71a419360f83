// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual video/audio stream properties
//   - VideoInfo: the frame geometry, rate, and count the extractor relies on
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - CountFrames: decodes the whole video stream and reports frames read,
//     used for download integrity checks
package ffprobe
