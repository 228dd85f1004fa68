// Package blob stores uploaded documents and hands out refs that articles
// keep in their File field.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates that no blob exists for a ref.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidRef indicates a ref that could escape the blob area.
var ErrInvalidRef = errors.New("invalid blob ref")

// Store holds uploaded document bytes.
type Store interface {
	// Put stores data under a new ref derived from the original file name.
	Put(ctx context.Context, name string, data []byte) (string, error)

	// Open returns a reader for the blob. The caller must close it.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes the blob, returning ErrNotFound if it does not exist.
	Delete(ctx context.Context, ref string) error

	Close() error
}

// unsafeChars matches characters that are not kept in refs.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var dotRuns = regexp.MustCompile(`\.{2,}`)

// NewRef returns a unique ref for an upload named name:
// "<unix millis>-<8 hex>-<sanitized base name>".
func NewRef(name string) string {
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString()[:8], sanitizeName(name))
}

// sanitizeName reduces an uploaded file name to a safe base name.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "upload"
	}
	return name
}

// ValidateRef rejects refs that are empty or contain path components.
func ValidateRef(ref string) error {
	if ref == "" || ref == "." || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// DisplayName returns the sanitized original file name embedded in ref.
func DisplayName(ref string) string {
	parts := strings.SplitN(ref, "-", 3)
	if len(parts) == 3 && parts[2] != "" {
		return parts[2]
	}
	return ref
}

// ContentType guesses a MIME type from a file name's extension.
func ContentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
