package storage

import (
	"context"

	"github.com/matsen/artman/internal/article"
)

// Store is the article record store.
//
// Implementations return article.ErrNotFound (possibly wrapped) from FindByID
// and DeleteByID when no record has the id.
type Store interface {
	// Insert assigns an id and creation time (unless already set, as when
	// restoring a snapshot) and persists the article.
	Insert(ctx context.Context, a article.Article) (article.Article, error)

	// FindAll returns articles in insertion order. A non-empty filter keeps
	// only titles containing it, case-insensitively.
	FindAll(ctx context.Context, titleFilter string) ([]article.Article, error)

	FindByID(ctx context.Context, id string) (article.Article, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}
