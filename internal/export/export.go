// Package export is the boundary to the external document conversion
// service. The editor hands over sanitized markup and a target format; it
// never implements the file encoding itself.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Format enumerates the supported output formats.
type Format string

const (
	// FormatPDF requests a PDF rendition.
	FormatPDF Format = "pdf"
	// FormatDOCX requests a Word rendition.
	FormatDOCX Format = "docx"
	// FormatHWP requests a Hangul word processor rendition.
	FormatHWP Format = "hwp"
)

// ErrUnknownFormat indicates an unsupported export format.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat validates a raw format string.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	case FormatHWP:
		return FormatHWP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// Request carries the current sanitized markup and the desired format.
type Request struct {
	Format  Format `json:"format"`
	Content string `json:"content"`
}

// Result is the conversion outcome reported by the external service.
type Result struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Exporter converts draft markup into a downloadable document.
type Exporter interface {
	Export(ctx context.Context, request Request) (Result, error)
}
