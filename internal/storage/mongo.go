package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matsen/artman/internal/article"
)

// Defaults for the MongoDB store.
const (
	DefaultMongoDatabase   = "artman"
	DefaultMongoCollection = "articles"

	mongoDisconnectTimeout = 10 * time.Second
)

// MongoStore keeps articles as documents in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// mongoArticle is the stored document shape. New documents get ObjectID ids;
// ids restored from other stores are kept as strings.
type mongoArticle struct {
	ID        any       `bson:"_id,omitempty"`
	Title     string    `bson:"title"`
	Author    string    `bson:"author"`
	Summary   string    `bson:"summary"`
	Notes     string    `bson:"notes"`
	DOI       string    `bson:"doi"`
	File      *string   `bson:"file"`
	CreatedAt time.Time `bson:"created_at"`
}

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Insert persists a new article.
func (s *MongoStore) Insert(ctx context.Context, a article.Article) (article.Article, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	// BSON dates carry millisecond precision.
	a.CreatedAt = a.CreatedAt.Truncate(time.Millisecond)

	doc := mongoArticle{
		Title:     a.Title,
		Author:    a.Author,
		Summary:   a.Summary,
		Notes:     a.Notes,
		DOI:       a.DOI,
		File:      a.File,
		CreatedAt: a.CreatedAt,
	}
	if a.ID != "" {
		doc.ID = idValue(a.ID)
	} else {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return article.Article{}, fmt.Errorf("inserting article: %w", err)
	}

	a.ID = idString(doc.ID)
	return a, nil
}

// FindAll returns articles in insertion order, optionally filtered by title.
func (s *MongoStore) FindAll(ctx context.Context, titleFilter string) ([]article.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, titleQuery(titleFilter), opts)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []article.Article{}
	for cursor.Next(ctx) {
		var doc mongoArticle
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding article: %w", err)
		}
		articles = append(articles, doc.toArticle())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return articles, nil
}

// FindByID returns the article with the given id.
func (s *MongoStore) FindByID(ctx context.Context, id string) (article.Article, error) {
	var doc mongoArticle
	err := s.collection.FindOne(ctx, bson.M{"_id": idValue(id)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return article.Article{}, fmt.Errorf("%w: %s", article.ErrNotFound, id)
		}
		return article.Article{}, fmt.Errorf("finding article: %w", err)
	}
	return doc.toArticle(), nil
}

// DeleteByID removes the article with the given id.
func (s *MongoStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": idValue(id)})
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", article.ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored articles.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return int(n), nil
}

// titleQuery matches titles containing filter, case-insensitively.
// The filter is matched literally, not as a regular expression.
func titleQuery(filter string) bson.M {
	if filter == "" {
		return bson.M{}
	}
	return bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(filter), Options: "i"}}
}

// idValue converts an id string to the stored _id value.
func idValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// idString converts a stored _id value back to its string form.
func idString(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func (d mongoArticle) toArticle() article.Article {
	return article.Article{
		ID:        idString(d.ID),
		Title:     d.Title,
		Author:    d.Author,
		Summary:   d.Summary,
		Notes:     d.Notes,
		DOI:       d.DOI,
		File:      d.File,
		CreatedAt: d.CreatedAt.UTC(),
	}
}
