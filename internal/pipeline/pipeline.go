package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
	"github.com/TobiSchelling/NewsExtractor/internal/metrics"
	"github.com/TobiSchelling/NewsExtractor/internal/store"
)

// Fetcher returns the candidate articles for a keyword within one day window.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, w article.Window) ([]article.Candidate, error)
}

// Filter keeps the candidates whose robots.txt permits crawling.
type Filter interface {
	Filter(ctx context.Context, candidates []article.Candidate) (article.Result[article.Candidate], error)
}

// Scraper extracts content from approved articles.
type Scraper interface {
	Scrape(ctx context.Context, approved []article.Candidate) (article.Result[article.Scraped], error)
}

// Stage names a processing step whose failure ends the unit.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageFilter Stage = "filter"
	StageScrape Stage = "scrape"
)

// StageError reports a failed processing step. Persistence failures never
// produce one.
type StageError struct {
	Stage Stage
	Unit  Unit
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for keyword %q on %s: %v", e.Stage, e.Unit.Keyword, e.Unit.Window.Day(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Unit is one (topic, keyword, day) run.
type Unit struct {
	Topic   string
	Keyword string
	Window  article.Window
}

func (u Unit) batch(collection string, records []article.Record) store.Batch {
	return store.Batch{
		Collection: collection,
		Topic:      u.Topic,
		Keyword:    u.Keyword,
		Date:       u.Window.Day(),
		Records:    records,
	}
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name     string
	Count    int
	Dropped  int
	Duration time.Duration
	Err      error
}

// Result holds the results of one unit. Steps stops at the failing stage.
type Result struct {
	Unit  Unit
	Steps []StepResult

	Fetched  int
	Approved int
	Scraped  int
}

// Pipeline runs fetch, filter and scrape for a unit, persisting each stage's output.
type Pipeline struct {
	fetcher Fetcher
	filter  Filter
	scraper Scraper
	sink    store.Sink
	metrics *metrics.Metrics
	log     logger.Logger
}

// New creates a new pipeline. m may be nil.
func New(fetcher Fetcher, filter Filter, scraper Scraper, sink store.Sink, m *metrics.Metrics, log logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		filter:  filter,
		scraper: scraper,
		sink:    sink,
		metrics: m,
		log:     log,
	}
}

// RunUnit executes the three stages in order. A stage error stops the unit and is
// returned as *StageError; the partial Result is returned alongside it.
func (p *Pipeline) RunUnit(ctx context.Context, u Unit) (*Result, error) {
	r := &Result{Unit: u}
	log := p.log.With(logger.String("keyword", u.Keyword), logger.String("date", u.Window.Day()))

	log.Info(fmt.Sprintf("Topic: %s / Keyword: %s / Date: %s", u.Topic, u.Keyword, u.Window.Day()))

	// Step 1: Fetch
	start := time.Now()
	candidates, err := p.fetcher.Fetch(ctx, u.Keyword, u.Window)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: string(StageFetch), Duration: time.Since(start), Err: err})
		return r, &StageError{Stage: StageFetch, Unit: u, Err: err}
	}
	r.Fetched = len(candidates)
	r.Steps = append(r.Steps, StepResult{Name: string(StageFetch), Count: len(candidates), Duration: time.Since(start)})
	p.metrics.RecordArticles(store.CollectionFetched, len(candidates))
	p.persist(ctx, log, u.batch(store.CollectionFetched, article.Records(candidates)))

	// Step 2: Filter
	start = time.Now()
	approved, err := p.filter.Filter(ctx, candidates)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: string(StageFilter), Duration: time.Since(start), Err: err})
		return r, &StageError{Stage: StageFilter, Unit: u, Err: err}
	}
	r.Approved = len(approved.Kept)
	r.Steps = append(r.Steps, StepResult{
		Name:     string(StageFilter),
		Count:    len(approved.Kept),
		Dropped:  len(approved.Dropped),
		Duration: time.Since(start),
	})
	p.recordDrops(StageFilter, approved.Dropped)
	p.metrics.RecordArticles(store.CollectionApproved, len(approved.Kept))
	p.persist(ctx, log, u.batch(store.CollectionApproved, article.Records(approved.Kept)))

	// Step 3: Scrape
	start = time.Now()
	scraped, err := p.scraper.Scrape(ctx, approved.Kept)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: string(StageScrape), Duration: time.Since(start), Err: err})
		return r, &StageError{Stage: StageScrape, Unit: u, Err: err}
	}
	r.Scraped = len(scraped.Kept)
	r.Steps = append(r.Steps, StepResult{
		Name:     string(StageScrape),
		Count:    len(scraped.Kept),
		Dropped:  len(scraped.Dropped),
		Duration: time.Since(start),
	})
	p.recordDrops(StageScrape, scraped.Dropped)
	p.metrics.RecordArticles(store.CollectionScraped, len(scraped.Kept))
	p.persist(ctx, log, u.batch(store.CollectionScraped, article.ScrapedRecords(scraped.Kept)))

	return r, nil
}

// DeadLetter records a failed unit in the failed collection. Used when the
// scheduler isolates unit failures instead of aborting.
func (p *Pipeline) DeadLetter(ctx context.Context, u Unit, runID string, unitErr error) {
	stage := ""
	var se *StageError
	if errors.As(unitErr, &se) {
		stage = string(se.Stage)
	}
	rec := article.Record{
		"id":        uuid.NewString(),
		"run_id":    runID,
		"keyword":   u.Keyword,
		"stage":     stage,
		"error":     unitErr.Error(),
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	}
	p.persist(ctx, p.log, u.batch(store.CollectionFailed, []article.Record{rec}))
}

// persist is best effort: a sink failure is logged and counted, never returned.
func (p *Pipeline) persist(ctx context.Context, log logger.Logger, b store.Batch) {
	if err := p.sink.Persist(ctx, b); err != nil {
		p.metrics.RecordPersistFailure(b.Collection)
		log.Warn("failed to persist batch",
			logger.String("collection", b.Collection),
			logger.Int("records", len(b.Records)),
			logger.Error(err))
	}
}

func (p *Pipeline) recordDrops(stage Stage, drops []article.Drop) {
	for _, d := range drops {
		p.metrics.RecordDrop(string(stage), string(d.Reason))
	}
}
