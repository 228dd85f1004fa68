// Package article defines the core domain types for bibliographic records.
package article

import (
	"strings"
	"time"
)

// Article represents a bibliographic record, optionally bound to an uploaded file.
type Article struct {
	// Identity
	ID string `json:"_id"` // Store-assigned, immutable

	// Metadata
	Title   string `json:"title"`
	Author  string `json:"author"` // Free form: "Name, Name, ..."
	Summary string `json:"summary"`
	Notes   string `json:"notes"` // User-authored, never machine-derived
	DOI     string `json:"doi"`

	// Attachment
	File *string `json:"file"` // Blob ref, nil when no file is attached

	CreatedAt time.Time `json:"created_at"`
}

// HasFile reports whether the article references a stored blob.
func (a Article) HasFile() bool {
	return a.File != nil && *a.File != ""
}

// FileRef returns the blob ref, or "" when no file is attached.
func (a Article) FileRef() string {
	if a.File == nil {
		return ""
	}
	return *a.File
}

// Fields are the user-submitted form values for a new article.
type Fields struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
	Notes   string `json:"notes"`
	DOI     string `json:"doi"`
}

// Validate checks the required fields.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

// New builds an unsaved Article from form fields and an optional blob ref.
// The summary is taken as given; callers decide how it was derived.
func New(f Fields, summary string, fileRef string) Article {
	a := Article{
		Title:   strings.TrimSpace(f.Title),
		Author:  strings.TrimSpace(f.Author),
		Summary: summary,
		Notes:   f.Notes,
		DOI:     strings.TrimSpace(f.DOI),
	}
	if fileRef != "" {
		ref := fileRef
		a.File = &ref
	}
	return a
}
