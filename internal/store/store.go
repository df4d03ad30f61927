// Package store persists stage outputs. Each (topic, keyword) pair gets its own
// database and each stage its own collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/config"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

// Collection names, one per pipeline stage plus the dead-letter collection.
const (
	CollectionFetched  = "fetched"
	CollectionApproved = "approved"
	CollectionScraped  = "scraped"
	CollectionFailed   = "failed"
)

// SearchDateField is added to every persisted record.
const SearchDateField = "search_date"

// Batch is one stage's output for a single (topic, keyword, day) unit.
type Batch struct {
	Collection string
	Topic      string
	Keyword    string
	Date       string // YYYY-MM-DD window start
	Records    []article.Record
}

// Database returns the database the batch belongs to.
func (b Batch) Database() string {
	return DatabaseName(b.Topic, b.Keyword)
}

// Documents returns copies of the batch records tagged with search_date.
// The batch itself is left untouched.
func (b Batch) Documents() []article.Record {
	docs := make([]article.Record, len(b.Records))
	for i, r := range b.Records {
		doc := make(article.Record, len(r)+1)
		for k, v := range r {
			doc[k] = v
		}
		doc[SearchDateField] = b.Date
		docs[i] = doc
	}
	return docs
}

// Sink accepts batches of records. Callers treat Persist as best effort.
type Sink interface {
	Persist(ctx context.Context, b Batch) error
	Close(ctx context.Context) error
}

// DatabaseName builds "<topic>-<keyword>" with spaces removed and lower-cased.
func DatabaseName(topic, keyword string) string {
	clean := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, " ", ""))
	}
	return clean(topic) + "-" + clean(keyword)
}

// Open returns the sink selected by the credentials file.
func Open(ctx context.Context, creds *config.Credentials, log logger.Logger) (Sink, error) {
	switch {
	case creds == nil:
		return nil, config.ErrNoSink
	case creds.MongoDB.URI != "":
		sink, err := NewMongoSink(ctx, creds.MongoDB.URI, log)
		if err != nil {
			return nil, fmt.Errorf("opening mongodb sink: %w", err)
		}
		return sink, nil
	case creds.SQLite.Path != "":
		sink, err := OpenSQLite(creds.SQLite.Path, log)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite sink: %w", err)
		}
		return sink, nil
	default:
		return nil, config.ErrNoSink
	}
}

var errClosed = errors.New("store: sink is closed")
