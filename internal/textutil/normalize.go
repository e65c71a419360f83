package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// punctuationStripper removes typographic punctuation that OCR and slide
// exports render inconsistently.
var punctuationStripper = strings.NewReplacer(
	"“", "", // left double quote
	"”", "", // right double quote
	"•", "", // bullet
	"»", "", // right guillemet
	"—", "", // em dash
	"–", "", // en dash
)

// CleanText normalizes text for matching: NFC composition, removal of smart
// quotes, bullets, guillemets, and long dashes, then whitespace collapsed to
// single spaces and trimmed.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = punctuationStripper.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
