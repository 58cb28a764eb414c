package services

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

type TextExtractor interface {
	// ExtractText returns the plain text of an uploaded document. PDFs are
	// parsed page by page; text formats are taken as UTF-8.
	ExtractText(filename string, data []byte) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".srt": true, ".vtt": true, ".csv": true,
	".json": true, ".xml": true, ".html": true, ".htm": true, ".po": true,
	".strings": true, ".xliff": true, ".xlf": true, ".yaml": true, ".yml": true,
}

func (e *textExtractor) ExtractText(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".pdf" || http.DetectContentType(data) == "application/pdf" {
		return extractPDF(data)
	}

	if textExtensions[ext] || strings.HasPrefix(http.DetectContentType(data), "text/") {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", ErrValidation, filename)
		}
		text := strings.TrimPrefix(string(data), "\ufeff")
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: no text content found in %s", ErrValidation, filename)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: unsupported document type %q", ErrValidation, ext)
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %v", ErrValidation, err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text content found in PDF", ErrValidation)
	}

	return text, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
