package crossref

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/summarize"
)

// WorkFetcher retrieves the untyped registry record for a DOI.
type WorkFetcher interface {
	GetWork(ctx context.Context, doi string) (map[string]any, error)
}

// Summarizer produces a summary when the registry has no abstract.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summarize.Result
}

// Resolver turns a DOI into normalized metadata.
type Resolver struct {
	works      WorkFetcher
	summarizer Summarizer
	logger     *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(works WorkFetcher, summarizer Summarizer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{works: works, summarizer: summarizer, logger: logger}
}

// Resolve fetches and maps the record for doi. Any registry failure is
// reported as article.ErrDOINotFound; no partial metadata is returned.
// The returned DOI is the input as given.
func (r *Resolver) Resolve(ctx context.Context, doi string) (Metadata, error) {
	if strings.TrimSpace(doi) == "" {
		return Metadata{}, &article.ValidationError{Field: "doi", Message: "doi is required"}
	}

	doc, err := r.works.GetWork(ctx, doi)
	if err != nil {
		r.logger.InfoContext(ctx, "doi lookup failed", "doi", doi, "reason", failureReason(err), "error", err)
		return Metadata{}, fmt.Errorf("%w: %s: %w", article.ErrDOINotFound, doi, err)
	}

	work := MapWork(doc)
	summary := work.Abstract
	if summary == "" {
		res := r.summarizer.Summarize(ctx, synthesisText(work))
		summary = res.Text
		r.logger.DebugContext(ctx, "synthesized abstract", "doi", doi, "outcome", string(res.Outcome))
	}

	return Metadata{
		Title:   work.Title,
		Authors: work.Authors,
		Summary: summary,
		DOI:     doi,
	}, nil
}

// synthesisText is the pseudo-document summarized when no abstract exists.
func synthesisText(w Work) string {
	return fmt.Sprintf("Title: %s\nAuthors: %s\n%s", w.Title, w.Authors, w.Description)
}

// failureReason classifies a lookup error for logging.
func failureReason(err error) string {
	switch {
	case IsNotFound(err):
		return "not_found"
	case IsRateLimited(err):
		return "rate_limited"
	case errors.Is(err, ErrNetworkError):
		return "network"
	default:
		return "registry_error"
	}
}
