package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

// mongoURIEnv points the integration test at a running mongod, e.g.
// NEWSEXTRACTOR_TEST_MONGODB_URI=mongodb://localhost:27017.
const mongoURIEnv = "NEWSEXTRACTOR_TEST_MONGODB_URI"

func TestMongoSinkPersistIntegration(t *testing.T) {
	uri := os.Getenv(mongoURIEnv)
	if uri == "" {
		t.Skipf("%s not set", mongoURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := NewMongoSink(ctx, uri, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	topic := "it" + uuid.NewString()[:8]
	b := Batch{
		Collection: CollectionScraped,
		Topic:      topic,
		Keyword:    "Carbon Tax",
		Date:       "2024-03-01",
		Records: []article.Record{
			{"url": "https://a.com/1", "title": "One", "publish_date": nil, "authors": []string{"A"}},
			{"url": "https://a.com/2", "title": "Two", "publish_date": "2024-03-01T10:00:00Z", "authors": []string{}},
		},
	}
	db := sink.client.Database(b.Database())
	t.Cleanup(func() { _ = db.Drop(context.Background()) })

	require.NoError(t, sink.Persist(ctx, b))
	require.NoError(t, sink.Persist(ctx, Batch{Collection: CollectionApproved, Topic: topic, Keyword: "Carbon Tax", Date: "2024-03-01"}))

	coll := db.Collection(CollectionScraped)
	count, err := coll.CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	var doc bson.M
	require.NoError(t, coll.FindOne(ctx, bson.D{{Key: "url", Value: "https://a.com/1"}}).Decode(&doc))
	assert.Equal(t, "2024-03-01", doc[SearchDateField])
	assert.Equal(t, "One", doc["title"])
	assert.Nil(t, doc["publish_date"])

	names, err := db.ListCollectionNames(ctx, bson.D{})
	require.NoError(t, err)
	assert.NotContains(t, names, CollectionApproved, "empty batches must not create a collection")
}
