// Package export renders redlines and version diffs into annotated
// documents: insertions underlined, deletions struck through. HTML is
// rendered directly; PDF goes through headless Chrome and DOCX through
// pandoc, both optional system dependencies.
package export

import (
	dErrors "lexdraft/pkg/domain-errors"
)

// Format selects the output encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat validates a client-supplied format string.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatHTML, FormatPDF, FormatDOCX:
		return Format(raw), nil
	case "":
		return FormatHTML, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown export format %q", raw)
}

// Result is a rendered export ready to stream to the client.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// sanitizeFilename reduces a document title to a safe filename stem.
func sanitizeFilename(title string) string {
	var sb []rune
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb = append(sb, r)
		case r == ' ':
			sb = append(sb, '-')
		}
	}
	if len(sb) > 50 {
		sb = sb[:50]
	}
	if len(sb) == 0 {
		return "document"
	}
	return string(sb)
}
