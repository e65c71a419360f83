// Package deps checks that the external binaries the pipeline shells out to
// (ffmpeg, ffprobe, tesseract) are installed and usable.
package deps
