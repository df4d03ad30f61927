// Package policy decides, per URL, whether the site's robots.txt lets us fetch it.
// Every resolution failure is treated as "not permitted".
package policy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/temoto/robotstxt"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
	"github.com/TobiSchelling/NewsExtractor/internal/workpool"
)

const robotsTxtPath = "/robots.txt"

// maxRobotsBodyBytes limits the size of robots.txt responses we will read.
const maxRobotsBodyBytes = 512 * 1024

var (
	errStatus  = errors.New("robots: unexpected status")
	errNotUTF8 = errors.New("robots: body is not valid UTF-8")
)

// Filter checks candidate articles against their site's robots.txt.
// robots.txt is fetched fresh for every URL; nothing is cached across calls.
type Filter struct {
	client    *http.Client
	userAgent string
	workers   int
	timeout   time.Duration
	log       logger.Logger
}

// NewFilter creates a Filter. timeout bounds each robots.txt request.
func NewFilter(client *http.Client, userAgent string, workers int, timeout time.Duration, log logger.Logger) *Filter {
	if client == nil {
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = "*"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Filter{
		client:    client,
		userAgent: userAgent,
		workers:   workers,
		timeout:   timeout,
		log:       log,
	}
}

type verdict struct {
	allowed bool
	drop    article.Drop
}

// Filter returns the candidates robots.txt permits, in no particular order,
// plus a Drop for every other input row. A URL appearing more than once is kept
// at most once. The returned error is a stage-level failure only.
func (f *Filter) Filter(ctx context.Context, candidates []article.Candidate) (article.Result[article.Candidate], error) {
	var result article.Result[article.Candidate]

	seen := make(map[string]struct{}, len(candidates))
	unique := make([]article.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.URL]; dup {
			result.Dropped = append(result.Dropped, article.Drop{URL: c.URL, Reason: article.DropDuplicateURL})
			continue
		}
		seen[c.URL] = struct{}{}
		unique = append(unique, c)
	}

	verdicts, err := workpool.Map(ctx, f.workers, unique, func(ctx context.Context, c article.Candidate) (verdict, error) {
		return f.check(ctx, c.URL), nil
	})
	if err != nil {
		return result, fmt.Errorf("checking robots.txt: %w", err)
	}

	for i, v := range verdicts {
		if v.allowed {
			result.Kept = append(result.Kept, unique[i])
			continue
		}
		f.log.Debug("article not approved", logger.String("url", v.drop.URL),
			logger.String("reason", string(v.drop.Reason)))
		result.Dropped = append(result.Dropped, v.drop)
	}

	f.log.Info(fmt.Sprintf("%d Articles Approved", len(result.Kept)),
		logger.Int("approved", len(result.Kept)),
		logger.Int("dropped", len(result.Dropped)))
	return result, nil
}

// Allowed reports whether userAgent may fetch rawURL. A non-nil error means the
// policy could not be resolved; callers must treat that as not permitted.
func (f *Filter) Allowed(ctx context.Context, rawURL string) (bool, error) {
	v := f.check(ctx, rawURL)
	if v.allowed {
		return true, nil
	}
	return false, v.drop.Err
}

func (f *Filter) check(ctx context.Context, rawURL string) verdict {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		if err == nil {
			err = fmt.Errorf("robots: unsupported url %q", rawURL)
		}
		return verdict{drop: article.Drop{URL: rawURL, Reason: article.DropInvalidURL, Err: err}}
	}

	robots, err := f.fetch(ctx, parsed)
	if err != nil {
		return verdict{drop: article.Drop{URL: rawURL, Reason: article.DropPolicyUnavailable, Err: err}}
	}

	if !robots.TestAgent(pathOf(parsed), f.userAgent) {
		return verdict{drop: article.Drop{URL: rawURL, Reason: article.DropPolicyDisallowed}}
	}
	return verdict{allowed: true}
}

// fetch downloads and parses scheme://host/robots.txt. Anything other than a
// 2xx response with a parseable UTF-8 body is an error.
func (f *Filter) fetch(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	robotsURL := target.Scheme + "://" + target.Host + robotsTxtPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("robots: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robots: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d from %s", errStatus, resp.StatusCode, robotsURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("robots: read body: %w", err)
	}
	if !utf8.Valid(body) {
		return nil, errNotUTF8
	}

	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("robots: parse: %w", err)
	}
	return robots, nil
}

func pathOf(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
