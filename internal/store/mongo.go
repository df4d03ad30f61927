package store

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

// MongoSink writes each batch with InsertMany into database DatabaseName(topic, keyword).
// One client is shared for the life of the process.
type MongoSink struct {
	client *mongo.Client
	log    logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMongoSink connects lazily: the driver dials on first use, so an unreachable
// server surfaces as Persist errors rather than a startup failure.
func NewMongoSink(_ context.Context, uri string, log logger.Logger) (*MongoSink, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	return &MongoSink{client: client, log: log}, nil
}

// Persist inserts the batch. An empty batch is a no-op.
func (s *MongoSink) Persist(ctx context.Context, b Batch) error {
	if len(b.Records) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}

	docs := make([]any, 0, len(b.Records))
	for _, d := range b.Documents() {
		docs = append(docs, map[string]any(d))
	}

	coll := s.client.Database(b.Database()).Collection(b.Collection)
	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("inserting into %s.%s: %w", b.Database(), b.Collection, err)
	}
	s.log.Debug("persisted batch",
		logger.String("database", b.Database()),
		logger.String("collection", b.Collection),
		logger.Int("records", len(res.InsertedIDs)))
	return nil
}

// Close disconnects the client. Further Persist calls fail.
func (s *MongoSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Disconnect(ctx)
}
