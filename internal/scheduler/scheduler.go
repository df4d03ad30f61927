// Package scheduler drives the extraction loop: one backfill pass, then a delta
// pass after every idle interval, forever.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/NewsExtractor/internal/article"
	"github.com/TobiSchelling/NewsExtractor/internal/config"
	"github.com/TobiSchelling/NewsExtractor/internal/logger"
	"github.com/TobiSchelling/NewsExtractor/internal/metrics"
	"github.com/TobiSchelling/NewsExtractor/internal/pipeline"
)

const banner = "------------------------------------------------------------"

// Runner processes one (keyword, day) unit.
type Runner interface {
	RunUnit(ctx context.Context, u pipeline.Unit) (*pipeline.Result, error)
	DeadLetter(ctx context.Context, u pipeline.Unit, runID string, unitErr error)
}

// PassSummary describes one pass over every keyword.
type PassSummary struct {
	RunID    string
	Mode     Mode
	Units    int
	Failed   int
	Fetched  int
	Approved int
	Scraped  int
	Duration time.Duration
}

// Scheduler owns the window state and the idle cycle.
type Scheduler struct {
	topic        string
	keywords     []string
	backfillDays int
	interval     time.Duration
	onUnitError  string

	runner   Runner
	log      logger.Logger
	metrics  *metrics.Metrics
	textfile string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSleep replaces the idle wait between passes.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// WithMetrics records unit and pass metrics, writing them to textfile after every
// pass when textfile is set.
func WithMetrics(m *metrics.Metrics, textfile string) Option {
	return func(s *Scheduler) {
		s.metrics = m
		s.textfile = textfile
	}
}

// New creates a scheduler for the configured topic and keywords.
func New(cfg *config.Config, runner Runner, log logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		topic:        cfg.Topic,
		keywords:     cfg.Keywords,
		backfillDays: cfg.Scheduler.BackfillDays,
		interval:     cfg.Scheduler.Interval,
		onUnitError:  cfg.Scheduler.OnUnitError,
		runner:       runner,
		log:          log,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs the backfill pass and then alternates sleeping and delta passes.
// It returns only on a fatal unit error or when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	state := InitialState(s.keywords, s.now(), s.backfillDays)
	for {
		done, _, err := s.RunPass(ctx, state)
		if err != nil {
			return err
		}

		s.log.Info(fmt.Sprintf("Next Article Extraction In %s", humanInterval(s.interval)),
			logger.String("phase", string(PhaseSleeping)))
		s.log.Info(banner)
		if err := s.sleep(ctx, s.interval); err != nil {
			return err
		}
		state = done.Next(s.now())
	}
}

// RunOnce performs a single backfill pass.
func (s *Scheduler) RunOnce(ctx context.Context) (PassSummary, error) {
	_, summary, err := s.RunPass(ctx, InitialState(s.keywords, s.now(), s.backfillDays))
	return summary, err
}

// RunPass processes every keyword in configured order, one day window at a time
// from its cursor up to the time the keyword started. The returned state has each
// cursor advanced past the last processed window.
func (s *Scheduler) RunPass(ctx context.Context, state WindowState) (WindowState, PassSummary, error) {
	started := s.now()
	summary := PassSummary{RunID: uuid.NewString(), Mode: state.Mode}
	next := state.clone()
	log := s.log.With(logger.String("run_id", summary.RunID))

	log.Info(banner)
	log.Info("Running Article Extraction",
		logger.String("phase", string(state.Mode.Phase())),
		logger.Int("keywords", len(s.keywords)))

	for _, kw := range s.keywords {
		end := s.now()
		for _, w := range article.Windows(state.Cursor(kw), end) {
			if err := ctx.Err(); err != nil {
				return next, summary, err
			}

			u := pipeline.Unit{Topic: s.topic, Keyword: kw, Window: w}
			res, err := s.runner.RunUnit(ctx, u)
			summary.Units++
			if res != nil {
				summary.Fetched += res.Fetched
				summary.Approved += res.Approved
				summary.Scraped += res.Scraped
			}
			s.metrics.RecordUnit(err == nil)

			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return next, summary, ctxErr
				}
				summary.Failed++
				if s.onUnitError != config.OnUnitErrorIsolate {
					log.Error("article extraction failed", logger.Error(err))
					return next, summary, err
				}
				log.Warn("unit failed, continuing with next day", logger.Error(err))
				s.runner.DeadLetter(ctx, u, summary.RunID, err)
			}
			next.Cursors[kw] = w.End()
		}
	}

	summary.Duration = s.now().Sub(started)
	s.finishPass(log, summary)
	return next, summary, nil
}

func (s *Scheduler) finishPass(log logger.Logger, summary PassSummary) {
	log.Info(banner)
	log.Info("Article Extraction Completed",
		logger.String("mode", summary.Mode.String()),
		logger.Int("units", summary.Units),
		logger.Int("failed", summary.Failed),
		logger.Int("fetched", summary.Fetched),
		logger.Int("approved", summary.Approved),
		logger.Int("scraped", summary.Scraped))
	log.Info(fmt.Sprintf("Duration: %.2f minutes.", summary.Duration.Minutes()),
		logger.Duration("duration", summary.Duration))

	s.metrics.RecordPass(summary.Duration, s.now())
	if err := s.metrics.WriteTextfile(s.textfile); err != nil {
		log.Warn("failed to write metrics textfile", logger.String("path", s.textfile), logger.Error(err))
	}
}

func humanInterval(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%d Hours", d/time.Hour)
	}
	return d.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsFatal reports whether err ended the loop because of a failed stage rather
// than cancellation.
func IsFatal(err error) bool {
	var se *pipeline.StageError
	return errors.As(err, &se)
}
