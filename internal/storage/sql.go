package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/matsen/artman/internal/article"
)

// SQL drivers supported by OpenSQL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const articlesTable = "articles"

var articleColumns = []string{"id", "title", "author", "summary", "notes", "doi", "file", "created_at"}

// dialect holds what differs between SQL backends.
type dialect struct {
	driverName  string
	placeholder sq.PlaceholderFormat
	lower       string
	schema      []string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driverName:  "sqlite",
		placeholder: sq.Question,
		lower:       sqliteLowerFunc,
		schema: []string{`
			CREATE TABLE IF NOT EXISTS articles (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				author TEXT NOT NULL DEFAULT '',
				summary TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				doi TEXT NOT NULL DEFAULT '',
				file TEXT,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi != ''`,
		},
	},
	DriverPostgres: {
		driverName:  "pgx",
		placeholder: sq.Dollar,
		lower:       "LOWER",
		schema: []string{`
			CREATE TABLE IF NOT EXISTS articles (
				seq BIGSERIAL PRIMARY KEY,
				id TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				author TEXT NOT NULL DEFAULT '',
				summary TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				doi TEXT NOT NULL DEFAULT '',
				file TEXT,
				created_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_doi ON articles(doi) WHERE doi != ''`,
		},
	},
}

// SQLStore keeps articles in a SQL database.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	lower   string
}

// OpenSQL opens (creating the schema if needed) an article store.
// For sqlite the dsn is a file path; for postgres a connection string.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
		lower:   d.lower,
	}, nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Insert persists a new article.
func (s *SQLStore) Insert(ctx context.Context, a article.Article) (article.Article, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	var file sql.NullString
	if a.File != nil {
		file = sql.NullString{String: *a.File, Valid: true}
	}

	query, args, err := s.builder.Insert(articlesTable).
		Columns(articleColumns...).
		Values(a.ID, a.Title, a.Author, a.Summary, a.Notes, a.DOI, file, a.CreatedAt.UnixNano()).
		ToSql()
	if err != nil {
		return article.Article{}, fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return article.Article{}, fmt.Errorf("inserting article: %w", err)
	}

	return a, nil
}

// FindAll returns articles in insertion order, optionally filtered by title.
func (s *SQLStore) FindAll(ctx context.Context, titleFilter string) ([]article.Article, error) {
	q := s.builder.Select(articleColumns...).From(articlesTable).OrderBy("seq")
	if titleFilter != "" {
		q = q.Where(sq.Expr(s.lower+`(title) LIKE ? ESCAPE '\'`, likePattern(titleFilter)))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	articles := []article.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	return articles, nil
}

// FindByID returns the article with the given id.
func (s *SQLStore) FindByID(ctx context.Context, id string) (article.Article, error) {
	query, args, err := s.builder.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return article.Article{}, fmt.Errorf("building select: %w", err)
	}

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return article.Article{}, fmt.Errorf("%w: %s", article.ErrNotFound, id)
	}
	return a, err
}

// DeleteByID removes the article with the given id.
func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	query, args, err := s.builder.Delete(articlesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", article.ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored articles.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	query, args, err := s.builder.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (article.Article, error) {
	var (
		a         article.Article
		file      sql.NullString
		createdAt int64
	)
	err := row.Scan(&a.ID, &a.Title, &a.Author, &a.Summary, &a.Notes, &a.DOI, &file, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return article.Article{}, err
		}
		return article.Article{}, fmt.Errorf("scanning article: %w", err)
	}

	if file.Valid {
		ref := file.String
		a.File = &ref
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	return a, nil
}

// likePattern builds a case-folded substring LIKE pattern, escaping wildcards.
func likePattern(filter string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(strings.ToLower(filter)) + "%"
}
