// Package extract runs the online scan that turns one lecture clip into a
// finalized timeline.
//
// For each clip the Extractor samples a frame every interval, flags changes
// against the last stable frame, refines each change to a frame-accurate
// instant, reads the text on both sides of the change, and feeds the merger.
// Touched segments are checkpointed into the timeline store after every
// sample so an interrupted scan leaves a consistent, resumable file.
//
// Resume contract: a clip whose stored timeline already ends at the probed
// duration is skipped; any other cached state for the clip is discarded and
// the scan restarts from zero.
package extract
