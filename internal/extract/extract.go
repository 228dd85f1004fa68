// Package extract converts uploaded documents into plain text.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/matsen/artman/internal/article"
)

// Format is the declared document format of an upload.
type Format string

const (
	FormatPDF         Format = "pdf"
	FormatDOCX        Format = "docx"
	FormatUnsupported Format = "unsupported"
)

// FormatFromName derives the format tag from a file name extension (case-insensitive).
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	default:
		return FormatUnsupported
	}
}

// Extractor turns document payloads into plain text.
type Extractor struct {
	maxPages int
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxPages limits the number of PDF pages decoded (0 means all pages).
func WithMaxPages(n int) Option {
	return func(e *Extractor) {
		e.maxPages = n
	}
}

// WithLogger sets the logger used to report extraction failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the plain text of data, decoded according to format.
//
// Extraction never fails from the caller's point of view: an unsupported format
// or a payload the decoder rejects yields "" and a logged cause, so that
// summarization downstream can always run.
func (e *Extractor) Extract(ctx context.Context, data []byte, format Format) string {
	text, err := e.decode(data, format)
	if err != nil {
		e.logger.WarnContext(ctx, "extraction failed",
			"event", article.EventExtractionFailure,
			"format", string(format),
			"bytes", len(data),
			"error", err)
		return ""
	}

	if strings.TrimSpace(text) == "" {
		// Image-only PDFs land here; there is no OCR.
		e.logger.DebugContext(ctx, "document contains no extractable text", "format", string(format))
	}
	return text
}

// decode dispatches to the format-specific decoder. Decoder panics on
// malformed input are converted to errors.
func (e *Extractor) decode(data []byte, format Format) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("decoder panic: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("empty %s payload", format)
	}

	switch format {
	case FormatPDF:
		return ExtractPDF(data, e.maxPages)
	case FormatDOCX:
		return ExtractDOCX(data)
	default:
		return "", fmt.Errorf("unsupported format: %q", format)
	}
}
