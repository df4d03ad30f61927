package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
)

const (
	maxKeywords         = 10
	maxSummarySentences = 5
)

// extract parses an article page. It never returns a partially filled record
// together with an error.
func extract(body []byte, pageURL *url.URL) (*article.Scraped, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := normalizeText(parsed.TextContent)
	title := strings.TrimSpace(parsed.Title)
	if title == "" {
		title = firstNonEmpty(metaContent(doc, "meta[property='og:title']"), strings.TrimSpace(doc.Find("title").First().Text()))
	}

	scraped := &article.Scraped{
		Title:        title,
		Authors:      extractAuthors(doc, parsed.Byline),
		PublishDate:  extractPublishDate(doc),
		Text:         text,
		SourceURL:    pageURL.Scheme + "://" + pageURL.Host,
		ImageURL:     firstNonEmpty(metaContent(doc, "meta[property='og:image']"), metaContent(doc, "meta[name='twitter:image']"), parsed.Image),
		CanonicalURL: extractCanonical(doc),
	}

	scraped.Keywords = splitList(firstNonEmpty(
		metaContent(doc, "meta[name='news_keywords']"),
		metaContent(doc, "meta[name='keywords']"),
	), ",")
	if len(scraped.Keywords) == 0 {
		scraped.Keywords = topKeywords(title+" "+text, maxKeywords)
	}
	scraped.Summary = summarize(title, text, maxSummarySentences)
	if scraped.Summary == "" {
		scraped.Summary = strings.TrimSpace(parsed.Excerpt)
	}
	return scraped, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// extractAuthors gathers author names from meta tags and the readability byline,
// in page order, without duplicates.
func extractAuthors(doc *goquery.Document, byline string) []string {
	var raw []string
	doc.Find("meta[name='author'], meta[property='article:author'], meta[name='byl'], meta[name='dc.creator']").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok {
			raw = append(raw, v)
		}
	})
	doc.Find("[rel='author'], [itemprop='author'] [itemprop='name']").Each(func(_ int, s *goquery.Selection) {
		raw = append(raw, s.Text())
	})
	raw = append(raw, byline)

	seen := make(map[string]struct{})
	var authors []string
	for _, r := range raw {
		for _, name := range splitAuthors(r) {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			authors = append(authors, name)
		}
	}
	return authors
}

func splitAuthors(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return nil
	}
	if len(s) > 3 && strings.EqualFold(s[:3], "by ") {
		s = s[3:]
	}
	s = strings.NewReplacer(" and ", ",", " And ", ",", " & ", ",", "|", ",").Replace(s)
	return splitList(s, ",")
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.Join(strings.Fields(part), " "); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var publishDateSelectors = []string{
	"meta[property='article:published_time']",
	"meta[name='article:published_time']",
	"meta[itemprop='datePublished']",
	"meta[name='pubdate']",
	"meta[name='publishdate']",
	"meta[name='date']",
	"meta[name='dc.date.issued']",
	"meta[property='og:published_time']",
}

// extractPublishDate returns nil when the page carries no parseable date.
func extractPublishDate(doc *goquery.Document) *time.Time {
	var candidates []string
	for _, sel := range publishDateSelectors {
		if v := metaContent(doc, sel); v != "" {
			candidates = append(candidates, v)
		}
	}
	doc.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		var data any
		if json.Unmarshal([]byte(s.Text()), &data) == nil {
			if v := findJSONKey(data, "datePublished"); v != "" {
				candidates = append(candidates, v)
			}
		}
	})
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}

	for _, c := range candidates {
		t, err := dateparse.ParseAny(strings.TrimSpace(c))
		if err == nil && !t.IsZero() {
			return &t
		}
	}
	return nil
}

func findJSONKey(data any, key string) string {
	switch v := data.(type) {
	case map[string]any:
		if s, ok := v[key].(string); ok && s != "" {
			return s
		}
		for _, child := range v {
			if s := findJSONKey(child, key); s != "" {
				return s
			}
		}
	case []any:
		for _, child := range v {
			if s := findJSONKey(child, key); s != "" {
				return s
			}
		}
	}
	return ""
}

func extractCanonical(doc *goquery.Document) string {
	if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	return metaContent(doc, "meta[property='og:url']")
}

// normalizeText collapses runs of blank lines and trims every line.
func normalizeText(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
