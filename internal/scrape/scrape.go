// Package scrape downloads approved articles and extracts their full content.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
	"github.com/TobiSchelling/NewsExtractor/internal/workpool"
)

// maxPageBytes caps how much of a page is read before parsing.
const maxPageBytes = 10 << 20

// Scraper fetches article pages in parallel and extracts their content.
// A URL that fails at any point is dropped; no partial records are produced.
type Scraper struct {
	client    *http.Client
	userAgent string
	workers   int
	timeout   time.Duration
	log       logger.Logger
}

// NewScraper creates a scraper. timeout bounds each page download and parse.
func NewScraper(client *http.Client, userAgent string, workers int, timeout time.Duration, log logger.Logger) *Scraper {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{
		client:    client,
		userAgent: userAgent,
		workers:   workers,
		timeout:   timeout,
		log:       log,
	}
}

type outcome struct {
	scraped *article.Scraped
	drop    article.Drop
}

// Scrape extracts every approved article it can. Output order is not defined.
// The returned error is a stage-level failure only.
func (s *Scraper) Scrape(ctx context.Context, approved []article.Candidate) (article.Result[article.Scraped], error) {
	var result article.Result[article.Scraped]

	outcomes, err := workpool.Map(ctx, s.workers, approved, func(ctx context.Context, c article.Candidate) (outcome, error) {
		return s.scrapeOne(ctx, c.URL), nil
	})
	if err != nil {
		return result, fmt.Errorf("scraping articles: %w", err)
	}

	for _, o := range outcomes {
		if o.scraped != nil {
			result.Kept = append(result.Kept, *o.scraped)
			continue
		}
		s.log.Debug("article not scraped", logger.String("url", o.drop.URL),
			logger.String("reason", string(o.drop.Reason)), logger.Error(o.drop.Err))
		result.Dropped = append(result.Dropped, o.drop)
	}

	s.log.Info(fmt.Sprintf("%d Articles Scraped", len(result.Kept)),
		logger.Int("scraped", len(result.Kept)),
		logger.Int("dropped", len(result.Dropped)))
	return result, nil
}

func (s *Scraper) scrapeOne(ctx context.Context, rawURL string) outcome {
	articleURL := strings.TrimSpace(rawURL)
	drop := func(reason article.DropReason, err error) outcome {
		return outcome{drop: article.Drop{URL: rawURL, Reason: reason, Err: err}}
	}

	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Host == "" {
		if err == nil {
			err = errors.New("missing host")
		}
		return drop(article.DropInvalidURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.download(ctx, articleURL)
	if err != nil {
		var statusErr *httpError
		if errors.As(err, &statusErr) {
			return drop(article.DropHTTPStatus, err)
		}
		return drop(article.DropDownloadFailed, err)
	}

	scraped, err := extract(body, parsed)
	if err != nil {
		return drop(article.DropParseFailed, err)
	}
	if strings.TrimSpace(scraped.Text) == "" {
		return drop(article.DropEmptyContent, errors.New("no extractable text"))
	}
	scraped.URL = rawURL
	return outcome{scraped: scraped}
}

func (s *Scraper) download(ctx context.Context, articleURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpError{code: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
