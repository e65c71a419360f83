package logging

import "strings"

// ProgressSampler suppresses repetitive scan progress logs. It emits when the
// scanned percentage crosses a bucket boundary or when a new clip starts.
type ProgressSampler struct {
	bucketSize float64
	lastClip   string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event for clipID at percent should be
// logged. Negative percentages mean unknown and only clip changes emit.
func (s *ProgressSampler) ShouldLog(clipID string, percent float64) bool {
	if s == nil {
		return true
	}
	clipID = strings.TrimSpace(clipID)
	emit := false
	if clipID != "" && clipID != s.lastClip {
		s.lastClip = clipID
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if percent > 100 {
			percent = 100
		}
		bucket := int(percent / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}
