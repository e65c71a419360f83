// Package align annotates calendar entries with the lecture position they
// correspond to.
//
// For each calendar entry the aligner looks for a clip recorded at most
// Window before the entry's timestamp whose matched timeline is available,
// takes the last segment of that clip that carries a section, and writes an
// autoDetected annotation onto the entry. Entries without a qualifying clip
// are left untouched; the nearest clip in either direction is logged for
// diagnosis.
//
// The calendar table is rewritten in place under a file lock. Fields the
// aligner does not own are preserved.
package align
