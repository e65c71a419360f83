// Package segment turns detected transitions into timeline segments.
//
// Merger is a two-state machine (no open segment, one open segment). Each
// observed (instant, text) either opens the first segment, extends the open
// one when the new text looks like a re-read of the previous slide, or closes
// it and opens the next. Empty text never causes a transition.
package segment
