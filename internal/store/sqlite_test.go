package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

func openTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { sink.Close(context.Background()) })
	return sink
}

func TestPersistAndReadBack(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	b := Batch{
		Collection: CollectionScraped,
		Topic:      "Climate Change",
		Keyword:    "carbon tax",
		Date:       "2024-03-01",
		Records: []article.Record{
			{"url": "https://a.com/1", "title": "One", "publish_date": nil, "authors": []string{"A"}},
			{"url": "https://a.com/2", "title": "Two", "publish_date": "2024-03-01T10:00:00Z", "authors": []string{}},
		},
	}
	if err := sink.Persist(ctx, b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := sink.Records(ctx, "climatechange-carbontax", CollectionScraped, "2024-03-01")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["url"] != "https://a.com/1" || got[1]["title"] != "Two" {
		t.Errorf("unexpected records: %v", got)
	}
	if got[0]["search_date"] != "2024-03-01" {
		t.Errorf("expected search_date on record, got %v", got[0]["search_date"])
	}
	if v, ok := got[0]["publish_date"]; !ok || v != nil {
		t.Errorf("expected explicit null publish_date, got %v (present=%v)", v, ok)
	}
}

func TestPersistEmptyBatchIsNoop(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	if err := sink.Persist(ctx, Batch{Collection: CollectionApproved, Topic: "t", Keyword: "k", Date: "2024-01-01"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, err := sink.Records(ctx, "t-k", CollectionApproved, "")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestRecordsAreSeparatedByCollectionAndDay(t *testing.T) {
	sink := openTestSink(t)
	ctx := context.Background()

	rec := []article.Record{{"url": "https://a.com/1"}}
	for _, b := range []Batch{
		{Collection: CollectionFetched, Topic: "t", Keyword: "k", Date: "2024-01-01", Records: rec},
		{Collection: CollectionFetched, Topic: "t", Keyword: "k", Date: "2024-01-02", Records: rec},
		{Collection: CollectionApproved, Topic: "t", Keyword: "k", Date: "2024-01-01", Records: rec},
		{Collection: CollectionFetched, Topic: "t", Keyword: "other", Date: "2024-01-01", Records: rec},
	} {
		if err := sink.Persist(ctx, b); err != nil {
			t.Fatalf("Persist: %v", err)
		}
	}

	all, _ := sink.Records(ctx, "t-k", CollectionFetched, "")
	if len(all) != 2 {
		t.Errorf("expected 2 fetched records for t-k, got %d", len(all))
	}
	day, _ := sink.Records(ctx, "t-k", CollectionFetched, "2024-01-02")
	if len(day) != 1 {
		t.Errorf("expected 1 fetched record on 2024-01-02, got %d", len(day))
	}
	approved, _ := sink.Records(ctx, "t-k", CollectionApproved, "")
	if len(approved) != 1 {
		t.Errorf("expected 1 approved record, got %d", len(approved))
	}
}

func TestPersistAfterCloseFails(t *testing.T) {
	sink, err := OpenSQLite(filepath.Join(t.TempDir(), "closed.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sink.Close(context.Background())

	err = sink.Persist(context.Background(), Batch{
		Collection: CollectionFetched, Topic: "t", Keyword: "k", Date: "2024-01-01",
		Records: []article.Record{{"url": "x"}},
	})
	if err == nil {
		t.Error("expected error persisting to a closed database")
	}
}
