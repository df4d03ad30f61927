// Package collect fetches candidate article metadata for a keyword and day window.
package collect

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/config"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
)

// Collector turns a keyword and window into a search API query.
type Collector struct {
	client *GDELTClient
	params config.SearchParameters
	log    logger.Logger
}

// NewCollector creates a collector from the fetcher and search settings.
func NewCollector(fc config.Fetcher, params config.SearchParameters, log logger.Logger) *Collector {
	return &Collector{
		client: NewGDELTClient(fc.BaseURL, fc.Format, fc.Timeout),
		params: params,
		log:    log,
	}
}

// Fetch returns candidate articles for keyword published within w.
func (c *Collector) Fetch(ctx context.Context, keyword string, w article.Window) ([]article.Candidate, error) {
	candidates, err := c.client.Search(ctx, NewFilters(keyword, c.params), w)
	if err != nil {
		return nil, fmt.Errorf("fetching %q for %s: %w", keyword, w.Day(), err)
	}

	c.log.Info(fmt.Sprintf("%d Articles Fetched", len(candidates)),
		logger.Int("fetched", len(candidates)))
	return candidates, nil
}
