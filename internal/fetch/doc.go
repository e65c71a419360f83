// Package fetch hands a verified local video file to the extraction pipeline.
//
// A clip resolves to {videos_dir}/{clip}.mp4, .m4v or .mkv when one exists.
// Otherwise, when downloads are enabled, the clip is fetched from the
// configured URL template into a .part file that is resumed with an HTTP
// Range request on the next attempt. Transient failures are retried with
// exponential backoff up to MaxAttempts. A finished download is fully decoded
// and its frame count compared with the container's; a short file is removed
// and reported as services.ErrIntegrity so the clip is abandoned for the run.
package fetch
