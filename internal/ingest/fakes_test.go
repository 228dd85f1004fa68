package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/extract"
	"github.com/matsen/artman/internal/summarize"
)

// memStore is an in-memory storage.Store that counts mutations.
type memStore struct {
	mu        sync.Mutex
	articles  []article.Article
	nextID    int
	inserts   int
	deletes   int
	insertErr error
}

func (s *memStore) Insert(ctx context.Context, a article.Article) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return article.Article{}, s.insertErr
	}
	s.inserts++
	s.nextID++
	a.ID = fmt.Sprintf("id-%d", s.nextID)
	s.articles = append(s.articles, a)
	return a, nil
}

func (s *memStore) FindAll(ctx context.Context, filter string) ([]article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []article.Article
	for _, a := range s.articles {
		if filter == "" || strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return article.Article{}, fmt.Errorf("%w: %s", article.ErrNotFound, id)
}

func (s *memStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.articles {
		if a.ID == id {
			s.articles = append(s.articles[:i], s.articles[i+1:]...)
			s.deletes++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", article.ErrNotFound, id)
}

func (s *memStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles), nil
}

func (s *memStore) Close() error { return nil }

// memBlobs is an in-memory blob.Store.
type memBlobs struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	puts      int
	deletes   int
	deleteErr error
	sequence  int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (b *memBlobs) Put(ctx context.Context, name string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	b.sequence++
	ref := fmt.Sprintf("%d-%s", b.sequence, name)
	b.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (b *memBlobs) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[ref]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Delete(ctx context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes++
	if b.deleteErr != nil {
		return b.deleteErr
	}
	if _, ok := b.blobs[ref]; !ok {
		return blob.ErrNotFound
	}
	delete(b.blobs, ref)
	return nil
}

func (b *memBlobs) Close() error { return nil }

func (b *memBlobs) has(ref string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[ref]
	return ok
}

// countingExtractor returns canned text and counts calls.
type countingExtractor struct {
	text    string
	calls   int
	formats []extract.Format
}

func (e *countingExtractor) Extract(ctx context.Context, data []byte, format extract.Format) string {
	e.calls++
	e.formats = append(e.formats, format)
	return e.text
}

// countingSummarizer wraps the local extractive summarizer and counts calls.
type countingSummarizer struct {
	calls  int
	inputs []string
}

func (s *countingSummarizer) Summarize(ctx context.Context, text string) summarize.Result {
	s.calls++
	s.inputs = append(s.inputs, text)
	return summarize.New(summarize.Options{}, nil, nil).Summarize(ctx, text)
}

var errBoom = errors.New("boom")
