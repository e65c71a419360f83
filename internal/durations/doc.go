// Package durations computes how long each slide and section was on screen.
//
// Every segment's duration (end minus start, rounded to hundredths) is written
// back onto the segment, and running totals accumulate per slide, per section,
// and per slide within each section. Totals use plain float summation; they
// are reporting output only.
package durations
