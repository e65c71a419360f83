// Package detect finds slide transitions in a video.
//
// Detector compares a sampled frame against the last stable frame after
// cropping the bottom watermark band. Refiner narrows a coarse
// [previous sample, flagged sample] window down to a single frame period by
// binary search over seeks, reporting the transition instant rounded to
// hundredths of a second.
package detect
