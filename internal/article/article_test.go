package article

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScrapedRecordPublishDate(t *testing.T) {
	published := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	rec := Scraped{URL: "https://a.com/x", PublishDate: &published}.Record()
	assert.Equal(t, "2024-03-05T14:30:00Z", rec["publish_date"])

	rec = Scraped{URL: "https://a.com/y"}.Record()
	assert.Nil(t, rec["publish_date"])
	assert.Equal(t, []string{}, rec["authors"])
	assert.Equal(t, []string{}, rec["keywords"])
}

func TestRecordsKeepOrder(t *testing.T) {
	recs := Records([]Candidate{{URL: "https://a.com"}, {URL: "https://b.com", Domain: "b.com"}})
	assert.Len(t, recs, 2)
	assert.Equal(t, "https://a.com", recs[0]["url"])
	assert.Equal(t, "b.com", recs[1]["domain"])
}

func TestDropCounts(t *testing.T) {
	r := Result[Candidate]{Dropped: []Drop{
		{URL: "a", Reason: DropPolicyDisallowed},
		{URL: "b", Reason: DropPolicyDisallowed},
		{URL: "c", Reason: DropPolicyUnavailable, Err: errors.New("timeout")},
	}}
	counts := r.DropCounts()
	assert.Equal(t, 2, counts[DropPolicyDisallowed])
	assert.Equal(t, 1, counts[DropPolicyUnavailable])
	assert.Equal(t, "c: policy_unavailable (timeout)", r.Dropped[2].String())
}
