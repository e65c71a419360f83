// Package logs reads the daily JSON log files written by the logging package.
//
// Tail returns the last lines of a file with bounded memory, Follow streams
// lines appended after an offset until the context ends, and Filter keeps
// only records whose fields match, so `lecturesync logs --clip 123` can
// narrow a batch log down to one clip.
package logs
