package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
)

// gdeltTimeLayout is the startdatetime/enddatetime format.
const gdeltTimeLayout = "20060102150405"

// seenDateLayout matches the seendate field of artlist results.
const seenDateLayout = "20060102T150405Z"

const maxResponseBytes = 32 << 20

// GDELTClient queries the GDELT DOC 2.0 article list endpoint.
type GDELTClient struct {
	baseURL   string
	format    string
	userAgent string
	client    *http.Client
}

// NewGDELTClient creates a client. format is "json" or "rss".
func NewGDELTClient(baseURL, format string, timeout time.Duration) *GDELTClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if format == "" {
		format = "json"
	}
	return &GDELTClient{
		baseURL:   baseURL,
		format:    format,
		userAgent: "newsextractor/1.0",
		client:    &http.Client{Timeout: timeout},
	}
}

// requestURL builds the artlist request for one window.
func (c *GDELTClient) requestURL(f Filters, w article.Window) string {
	params := url.Values{
		"query":         {f.Query()},
		"mode":          {"artlist"},
		"format":        {c.format},
		"maxrecords":    {strconv.Itoa(f.NumRecords)},
		"startdatetime": {dayStart(w.Start).Format(gdeltTimeLayout)},
		"enddatetime":   {dayStart(w.End()).Format(gdeltTimeLayout)},
	}
	return c.baseURL + "?" + params.Encode()
}

// dayStart truncates to midnight: the API is queried with whole YYYY-MM-DD days.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Search returns the articles matching f within w. Any transport, status or
// decoding problem is returned as an error.
func (c *GDELTClient) Search(ctx context.Context, f Filters, w article.Window) ([]article.Candidate, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(f, w), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("gdelt: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdelt: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("gdelt: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("gdelt: HTTP %d: %s", resp.StatusCode, snippet(body))
	}

	// Invalid queries come back as a 200 with a plain-text or HTML message.
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" || mediaType == "text/plain" {
		return nil, fmt.Errorf("gdelt: query rejected: %s", snippet(body))
	}

	if c.format == "rss" {
		return decodeRSS(body)
	}
	return decodeJSON(body)
}

type artlistResponse struct {
	Articles []struct {
		URL           string `json:"url"`
		URLMobile     string `json:"url_mobile"`
		Title         string `json:"title"`
		SeenDate      string `json:"seendate"`
		SocialImage   string `json:"socialimage"`
		Domain        string `json:"domain"`
		Language      string `json:"language"`
		SourceCountry string `json:"sourcecountry"`
	} `json:"articles"`
}

func decodeJSON(body []byte) ([]article.Candidate, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var result artlistResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("gdelt: decode: %w", err)
	}

	candidates := make([]article.Candidate, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.URL == "" {
			continue
		}
		candidates = append(candidates, article.Candidate{
			URL:           strings.TrimSpace(a.URL),
			URLMobile:     a.URLMobile,
			Title:         strings.TrimSpace(a.Title),
			SeenDate:      a.SeenDate,
			SocialImage:   a.SocialImage,
			Domain:        a.Domain,
			Language:      a.Language,
			SourceCountry: a.SourceCountry,
		})
	}
	return candidates, nil
}

func decodeRSS(body []byte) ([]article.Candidate, error) {
	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("gdelt: decode rss: %w", err)
	}

	candidates := make([]article.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if link == "" {
			continue
		}

		c := article.Candidate{
			URL:   strings.TrimSpace(link),
			Title: strings.TrimSpace(item.Title),
		}
		if u, err := url.Parse(c.URL); err == nil {
			c.Domain = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
		switch {
		case item.PublishedParsed != nil:
			c.SeenDate = item.PublishedParsed.UTC().Format(seenDateLayout)
		case item.Published != "":
			if t, err := dateparse.ParseAny(item.Published); err == nil {
				c.SeenDate = t.UTC().Format(seenDateLayout)
			}
		}
		if item.Image != nil {
			c.SocialImage = item.Image.URL
		}
		c.Language = item.Custom["language"]
		candidates = append(candidates, c)
	}
	return candidates, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
