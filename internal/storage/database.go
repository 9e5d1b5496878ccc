package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/qlcatalog/internal/types"
)

// mongoRecord is the document stored per catalog entry. The record ID is
// the document _id, so repeated scrapes update entries in place.
type mongoRecord struct {
	types.Record `bson:",inline"`
	Filter       string    `bson:"filter"`
	SourceURL    string    `bson:"source_url"`
	ScrapedAt    time.Time `bson:"scraped_at"`
}

// MongoStorage upserts records into a MongoDB collection.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage creates a new MongoDB storage backend.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(batch *types.Batch) error {
	if batch.Len() == 0 {
		return types.ErrEmptyDataset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	models := make([]mongo.WriteModel, len(batch.Records))
	for i, rec := range batch.Records {
		doc := mongoRecord{
			Record:    rec,
			Filter:    batch.Filter,
			SourceURL: batch.SourceURL,
			ScrapedAt: batch.ScrapedAt,
		}
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetReplacement(doc).
			SetUpsert(true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("mongodb bulk write: %w", err)
	}

	s.count += batch.Len()
	s.logger.Info("records upserted",
		"matched", res.MatchedCount,
		"upserted", res.UpsertedCount,
		"total", s.count,
	)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes batches to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

func (s *MultiStorage) Store(batch *types.Batch) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(batch); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = &types.StorageError{Backend: backend.Name(), Err: err}
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
