package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"lecturesync/internal/services"
)

// SlideRecord is one canonical slide.
type SlideRecord struct {
	SectionID    string `json:"section_id,omitempty"`
	SectionURI   string `json:"section_uri"`
	SectionTitle string `json:"section_title"`
	SlideURI     string `json:"slide_uri"`
	ContentText  string `json:"content_text"`
	HTML         string `json:"html"`
}

// Slides is a course catalog in file order.
type Slides []SlideRecord

// SlidesPath returns {dir}/{course}_slides.json.
func SlidesPath(dir, course string) string {
	return filepath.Join(dir, course+"_slides.json")
}

// LoadSlides reads a catalog of the form section_id -> [record, ...]. Section
// and record order follow the file. A missing file is reported with
// services.ErrMissingInput.
func LoadSlides(path string) (Slides, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingInput, "catalog", "open slides", path, err)
		}
		return nil, fmt.Errorf("open slide catalog: %w", err)
	}
	defer f.Close()

	var slides Slides
	dec := json.NewDecoder(f)
	err = decodeObject(dec, func(sectionID string) error {
		var records []SlideRecord
		if err := dec.Decode(&records); err != nil {
			return err
		}
		for _, rec := range records {
			if rec.SectionID == "" {
				rec.SectionID = sectionID
			}
			slides = append(slides, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode slide catalog %s: %w", path, err)
	}
	return slides, nil
}
