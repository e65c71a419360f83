package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CheckTesseractLanguage reports whether every language in lang (tesseract's
// "deu+eng" syntax) is installed for the given binary.
func CheckTesseractLanguage(ctx context.Context, binary, lang string) Status {
	binary = orDefault(binary, "tesseract")
	status := Status{
		Name:        "Tesseract language",
		Command:     binary,
		Description: "OCR language data for " + lang,
	}
	lang = strings.TrimSpace(lang)
	if lang == "" {
		status.Available = true
		status.Detail = "default language"
		return status
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(checkCtx, binary, "--list-langs").CombinedOutput()
	if err != nil {
		status.Detail = fmt.Sprintf("list languages: %v", err)
		return status
	}
	installed := parseLanguages(string(out))
	var missing []string
	for _, want := range strings.Split(lang, "+") {
		if want = strings.TrimSpace(want); want != "" && !installed[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		status.Detail = "missing language data: " + strings.Join(missing, ", ")
		return status
	}
	status.Available = true
	return status
}

// parseLanguages reads `tesseract --list-langs` output, whose first line is a
// header naming the tessdata directory.
func parseLanguages(output string) map[string]bool {
	langs := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		langs[line] = true
	}
	return langs
}
