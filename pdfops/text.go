package pdfops

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of the document, trimmed to maxChars
// runes when maxChars is positive. Pages without text are skipped.
func ExtractText(path string, maxChars int) (text string, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed streams
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to extract text: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var allText strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			Logger.Debug("Text extraction failed for page", "path", path, "page", i, "error", err)
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if allText.Len() > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(pageText)
		if maxChars > 0 && allText.Len() >= maxChars*4 {
			break
		}
	}

	text = allText.String()
	if maxChars > 0 {
		if runes := []rune(text); len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text, nil
}
