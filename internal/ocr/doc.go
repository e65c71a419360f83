// Package ocr turns slide frames into text.
//
// Engine is the narrow interface the extractor depends on. Tesseract runs the
// tesseract CLI, feeding the frame as PNG on stdin and reading plain text from
// stdout.
package ocr
