package matcher

import (
	"context"
	"log/slog"

	"lecturesync/internal/catalog"
	"lecturesync/internal/config"
	"lecturesync/internal/logging"
	"lecturesync/internal/textutil"
	"lecturesync/internal/timeline"
)

// Scorer rates the similarity of two cleaned texts in [0, 100].
type Scorer func(a, b string) float64

// Options holds the matching thresholds.
type Options struct {
	MinTextLength  int
	ScoreThreshold float64
	// Scorer defaults to textutil.TokenSetRatio.
	Scorer Scorer
}

// OptionsFromConfig maps the [matching] config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinTextLength:  cfg.Matching.MinTextLength,
		ScoreThreshold: cfg.Matching.ScoreThreshold,
	}
}

// Match is the best catalog record for one text.
type Match struct {
	Slide catalog.SlideRecord
	Index int
	Score float64
}

// Stats counts matcher outcomes.
type Stats struct {
	Segments int
	Eligible int
	Matched  int
}

func (s *Stats) add(other Stats) {
	s.Segments += other.Segments
	s.Eligible += other.Eligible
	s.Matched += other.Matched
}

// Matcher scores segments against one course catalog.
type Matcher struct {
	opts    Options
	slides  catalog.Slides
	cleaned []string
	logger  *slog.Logger
}

// New prepares a matcher for slides.
func New(opts Options, slides catalog.Slides, logger *slog.Logger) *Matcher {
	if opts.Scorer == nil {
		opts.Scorer = textutil.TokenSetRatio
	}
	cleaned := make([]string, len(slides))
	for i, slide := range slides {
		cleaned[i] = textutil.CleanText(slide.ContentText)
	}
	return &Matcher{
		opts:    opts,
		slides:  slides,
		cleaned: cleaned,
		logger:  logging.NewComponentLogger(logger, "matcher"),
	}
}

// Eligible reports whether text is long enough to be matched.
func (m *Matcher) Eligible(text string) bool {
	return textutil.RuneLen(textutil.CleanText(text)) >= m.opts.MinTextLength
}

// Best returns the highest-scoring catalog record for text. Ties keep the
// earliest record. ok is false when the text is too short, the catalog is
// empty, or the best score does not exceed the threshold.
func (m *Matcher) Best(text string) (Match, bool) {
	cleaned := textutil.CleanText(text)
	if textutil.RuneLen(cleaned) < m.opts.MinTextLength || len(m.slides) == 0 {
		return Match{}, false
	}
	best := Match{Index: -1, Score: -1}
	for i, candidate := range m.cleaned {
		if score := m.opts.Scorer(cleaned, candidate); score > best.Score {
			best = Match{Slide: m.slides[i], Index: i, Score: score}
		}
	}
	if best.Score <= m.opts.ScoreThreshold {
		return best, false
	}
	return best, true
}

// Apply matches one segment in place and reports whether it was matched.
func (m *Matcher) Apply(seg *timeline.Segment) bool {
	match, ok := m.Best(seg.Text)
	if !ok {
		seg.ClearMatch()
		return false
	}
	seg.SectionID = match.Slide.SectionID
	seg.SectionURI = match.Slide.SectionURI
	seg.SectionTitle = match.Slide.SectionTitle
	seg.SlideURI = match.Slide.SlideURI
	seg.SlideContent = match.Slide.ContentText
	seg.SlideHTML = match.Slide.HTML
	return true
}

// MatchTimeline matches every segment of tl in place.
func (m *Matcher) MatchTimeline(tl *timeline.ClipTimeline) Stats {
	var stats Stats
	for i := range tl.Segments {
		stats.Segments++
		if m.Eligible(tl.Segments[i].Text) {
			stats.Eligible++
		}
		if m.Apply(&tl.Segments[i]) {
			stats.Matched++
		}
	}
	return stats
}

// MatchDocument matches every clip of doc in place, in clip ID order.
func (m *Matcher) MatchDocument(ctx context.Context, doc timeline.Document) (Stats, error) {
	var total Stats
	for _, id := range doc.ClipIDs() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		tl := doc[id]
		stats := m.MatchTimeline(&tl)
		doc[id] = tl
		total.add(stats)
		m.logger.Debug("clip matched",
			logging.String(logging.FieldClipID, id),
			logging.Int("segments", stats.Segments),
			logging.Int("matched", stats.Matched),
		)
	}
	return total, nil
}

// MatchFile loads the store at src, matches it, and writes the result to dst.
// A missing src is reported with services.ErrMissingInput.
func (m *Matcher) MatchFile(ctx context.Context, src, dst string) (Stats, error) {
	doc, err := timeline.Load(src)
	if err != nil {
		return Stats{}, err
	}
	stats, err := m.MatchDocument(ctx, doc)
	if err != nil {
		return stats, err
	}
	if err := timeline.Save(dst, doc); err != nil {
		return stats, err
	}
	logging.WithContext(ctx, m.logger).Info("matched timeline written",
		logging.String("path", dst),
		logging.Int("segments", stats.Segments),
		logging.Int("eligible", stats.Eligible),
		logging.Int("matched", stats.Matched),
		logging.Int("catalog_slides", len(m.slides)),
		logging.String(logging.FieldEventType, "match_complete"),
	)
	return stats, nil
}
