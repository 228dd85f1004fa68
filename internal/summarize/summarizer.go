// Package summarize produces bounded-length plain-text summaries, preferring a
// remote chat model and falling back to a local extractive heuristic.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/markup"
)

const (
	// DefaultMaxInputChars bounds the text sent to the remote model.
	DefaultMaxInputChars = 4000

	// DefaultMaxTokens bounds the remote model's output.
	DefaultMaxTokens = 500

	// DefaultTimeout bounds a single remote summarization call.
	DefaultTimeout = 45 * time.Second

	systemPrompt = "You are an academic article summarization expert. " +
		"Create a concise summary by extracting the key points from the given text."

	userPromptPrefix = "Summarize this text (do not exceed 200 words): "
)

// errEmptyCompletion is returned when the remote model produced no usable text.
var errEmptyCompletion = errors.New("remote model returned no text")

// Outcome records which strategy produced a summary.
type Outcome string

const (
	// OutcomeEmpty means the input had no content; nothing was summarized.
	OutcomeEmpty Outcome = "empty"
	// OutcomeLocal means no credential was configured and the extractive heuristic ran.
	OutcomeLocal Outcome = "local"
	// OutcomeRemote means the remote model produced the summary.
	OutcomeRemote Outcome = "remote"
	// OutcomeDegraded means the remote model failed and the extractive heuristic ran.
	OutcomeDegraded Outcome = "degraded"
)

// Completer sends a system and user message to a chat model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Options configures a Summarizer.
type Options struct {
	// HasCredential selects the remote strategy. It is decided by the caller
	// from configuration, never by the summarizer.
	HasCredential bool

	MaxInputChars int
	MaxTokens     int
	Timeout       time.Duration
}

// Result is the outcome of a summarization.
type Result struct {
	Text    string
	Outcome Outcome
	Cause   error // Remote failure, set only for OutcomeDegraded
}

// Summarizer turns free text into a summary.
type Summarizer struct {
	opts   Options
	remote Completer
	logger *slog.Logger
}

// New creates a Summarizer. remote may be nil when opts.HasCredential is false.
func New(opts Options, remote Completer, logger *slog.Logger) *Summarizer {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Summarizer{opts: opts, remote: remote, logger: logger}
}

// Summarize returns a summary of text. It never fails: remote errors degrade
// to the extractive heuristic and are reported through Result.Cause.
func (s *Summarizer) Summarize(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Outcome: OutcomeEmpty}
	}

	if !s.opts.HasCredential || s.remote == nil {
		return Result{Text: Extractive(text), Outcome: OutcomeLocal}
	}

	summary, err := s.summarizeRemote(ctx, text)
	if err != nil {
		s.logger.WarnContext(ctx, "summarization degraded",
			"event", article.EventSummarizationDegraded,
			"input_chars", utf8.RuneCountInString(text),
			"error", err)
		return Result{Text: Extractive(text), Outcome: OutcomeDegraded, Cause: err}
	}

	return Result{Text: summary, Outcome: OutcomeRemote}
}

func (s *Summarizer) summarizeRemote(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	prompt := userPromptPrefix + truncateRunes(text, s.opts.MaxInputChars)
	reply, err := s.remote.Complete(ctx, systemPrompt, prompt, s.opts.MaxTokens)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("remote summarization timed out after %s: %w", s.opts.Timeout, err)
		}
		return "", fmt.Errorf("remote summarization: %w", err)
	}

	summary := markup.Strip(strings.TrimSpace(reply))
	if summary == "" {
		return "", errEmptyCompletion
	}
	return summary, nil
}

// truncateRunes cuts text to at most n characters without splitting a
// multi-byte character.
func truncateRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
