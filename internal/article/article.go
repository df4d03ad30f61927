// Package article defines the records that flow through the extraction pipeline.
package article

import (
	"time"
)

// DateLayout is the YYYY-MM-DD format used for window days and search_date.
const DateLayout = "2006-01-02"

// Candidate is one row of article metadata returned by the search API.
// An approved article is a Candidate that passed the policy filter.
type Candidate struct {
	URL           string
	URLMobile     string
	Title         string
	SeenDate      string
	SocialImage   string
	Domain        string
	Language      string
	SourceCountry string
}

// Record converts the candidate into its persisted shape.
func (c Candidate) Record() Record {
	return Record{
		"url":           c.URL,
		"url_mobile":    c.URLMobile,
		"title":         c.Title,
		"seendate":      c.SeenDate,
		"socialimage":   c.SocialImage,
		"domain":        c.Domain,
		"language":      c.Language,
		"sourcecountry": c.SourceCountry,
	}
}

// Scraped is the full-content record extracted from an approved article.
type Scraped struct {
	URL          string
	Title        string
	Authors      []string
	PublishDate  *time.Time
	Text         string
	Summary      string
	Keywords     []string
	SourceURL    string
	ImageURL     string
	CanonicalURL string
}

// Record converts the scraped article into its persisted shape.
// publish_date is an RFC 3339 string, or nil when the page carries no date.
func (s Scraped) Record() Record {
	var publishDate any
	if s.PublishDate != nil {
		publishDate = s.PublishDate.Format(time.RFC3339)
	}
	return Record{
		"url":           s.URL,
		"title":         s.Title,
		"authors":       nonNil(s.Authors),
		"publish_date":  publishDate,
		"text":          s.Text,
		"summary":       s.Summary,
		"keywords":      nonNil(s.Keywords),
		"source_url":    s.SourceURL,
		"image_url":     s.ImageURL,
		"canonical_url": s.CanonicalURL,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Record is a single document handed to the persistence sink.
type Record map[string]any

// Records converts a batch of candidates.
func Records(candidates []Candidate) []Record {
	out := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Record())
	}
	return out
}

// ScrapedRecords converts a batch of scraped articles.
func ScrapedRecords(scraped []Scraped) []Record {
	out := make([]Record, 0, len(scraped))
	for _, s := range scraped {
		out = append(out, s.Record())
	}
	return out
}
