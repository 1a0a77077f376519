// Package pipeline implements the pipeline orchestrator (C11): it
// glues the mapper (C3/C4), the notice crawler (C5) and the safety and
// snapshot layers (C7-C10) into the `map`, `crawl` and `pipeline`
// operations spec.md §4.11 names.
//
// Grounded on the teacher's internal/pipeline.Pipeline "load -> run
// stages -> report" shape and internal/app.App's top-level wiring, with
// *zerolog.Logger used the same way throughout and a per-run
// google/uuid correlation id attached to every log line.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uring/crawler/internal/config"
	"github.com/uring/crawler/internal/crawl"
	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/safety/breaker"
	"github.com/uring/crawler/internal/sitemap/boards"
	"github.com/uring/crawler/internal/sitemap/departments"
	"github.com/uring/crawler/internal/snapshot"
)

// Fetcher is the subset of *fetch.Client every stage needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Pipeline wires one run's configuration, seed, fetcher and snapshot
// store together.
type Pipeline struct {
	cfg     config.Config
	seed    config.Seed
	fetcher Fetcher
	store   *snapshot.Store
	logger  *zerolog.Logger

	discoveryConcurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDiscoveryConcurrency overrides board discovery's bounded
// concurrency (default 14, per spec.md §4.4).
func WithDiscoveryConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.discoveryConcurrency = n
		}
	}
}

// New builds a Pipeline.
func New(cfg config.Config, seed config.Seed, fetcher Fetcher, store *snapshot.Store, logger *zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:                  cfg,
		seed:                 seed,
		fetcher:              fetcher,
		store:                store,
		logger:               logger,
		discoveryConcurrency: 14,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MapResult is the outcome of a `map` run.
type MapResult struct {
	SiteMap      model.SiteMap
	ManualReview []model.ManualReviewItem
}

// Map runs C3 (department crawl) then C4 (board discovery) over every
// seed campus, then persists the resulting site map, per spec.md
// §4.11. It does not write the config/seed/locale documents; the CLI's
// `map` subcommand does that through Store.SaveConfig.
func (p *Pipeline) Map(ctx context.Context) (MapResult, error) {
	runID := uuid.New().String()
	log := p.logger.With().Str("run_id", runID).Str("op", "map").Logger()

	if err := p.cfg.Validate(); err != nil {
		return MapResult{}, fmt.Errorf("pipeline: invalid config: %w", err)
	}
	if err := p.seed.Validate(); err != nil {
		return MapResult{}, fmt.Errorf("pipeline: invalid seed: %w", err)
	}

	var site model.SiteMap
	for _, campusInfo := range p.seed.Campuses {
		campus, err := departments.CrawlCampus(ctx, p.fetcher, campusInfo)
		if err != nil {
			log.Error().Err(err).Str("campus", campusInfo.Name).Msg("department crawl failed")
			continue
		}
		site.Campuses = append(site.Campuses, campus)
	}

	reviews := boards.DiscoverAll(ctx, p.fetcher, &site, p.seed, p.cfg.Discovery, p.discoveryConcurrency)

	if err := p.store.SaveSiteMap(ctx, site); err != nil {
		return MapResult{SiteMap: site, ManualReview: reviews}, fmt.Errorf("pipeline: save site map: %w", err)
	}

	log.Info().
		Int("campuses", len(site.Campuses)).
		Int("manual_review", len(reviews)).
		Msg("map complete")

	return MapResult{SiteMap: site, ManualReview: reviews}, nil
}

// CrawlResult is the outcome of a `crawl` run.
type CrawlResult struct {
	Outcome model.CrawlOutcome
	Commit  snapshot.CommitResult
}

// CrawlOptions controls one `crawl` invocation.
type CrawlOptions struct {
	// SiteMap overrides the persisted site map (the CLI's
	// `--site-map PATH` flag); if nil, the last map'd site is loaded
	// from the store.
	SiteMap *model.SiteMap
	// ForceWrite bypasses the circuit breaker per spec.md §4.7.
	ForceWrite bool
}

// Crawl runs C5 (the notice crawler) over the site map, then gates and
// commits the result via C7-C10, per spec.md §4.11.
func (p *Pipeline) Crawl(ctx context.Context, opts CrawlOptions) (CrawlResult, error) {
	runID := uuid.New().String()
	log := p.logger.With().Str("run_id", runID).Str("op", "crawl").Logger()

	if err := p.cfg.Validate(); err != nil {
		return CrawlResult{}, fmt.Errorf("pipeline: invalid config: %w", err)
	}

	site := opts.SiteMap
	if site == nil {
		loaded, err := p.store.LoadSiteMap(ctx)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("pipeline: load site map: %w", err)
		}
		site = &loaded
	}

	crawlDay := time.Now().UTC()
	requestDelay := time.Duration(p.cfg.Crawler.RequestDelayMs) * time.Millisecond

	outcome := crawl.Run(ctx, p.fetcher, *site, p.cfg.Cleaning, p.cfg.ClampedConcurrency(), requestDelay, crawlDay)

	log.Info().
		Int("notices", len(outcome.Notices)).
		Int("board_total", outcome.BoardTotal).
		Int("board_failures", outcome.BoardFailures).
		Int("notice_failures", outcome.NoticeFailures).
		Int("errors", len(outcome.Errors)).
		Msg("crawl stage complete")

	commit, err := p.store.Commit(ctx, snapshot.CommitInput{
		Notices:    outcome.Notices,
		Outcome:    outcome,
		StartedAt:  time.Now(),
		ForceWrite: opts.ForceWrite,
	})
	if err != nil {
		var cbErr *snapshot.CircuitBreakerError
		if asCircuitBreakerError(err, &cbErr) {
			log.Warn().
				Str("decision", string(cbErr.Result.Decision)).
				Int("current", cbErr.Result.CurrentCount).
				Int("previous", cbErr.Result.PreviousCount).
				Float64("drop_percent", cbErr.Result.DropPercent).
				Msg("snapshot commit refused by circuit breaker")
			return CrawlResult{Outcome: outcome, Commit: commit}, err
		}
		return CrawlResult{Outcome: outcome, Commit: commit}, fmt.Errorf("pipeline: commit snapshot: %w", err)
	}

	if outcome.BoardFailures > 0 || outcome.NoticeFailures > 0 || outcome.DetailFailures > 0 {
		log.Warn().
			Int("board_failures", outcome.BoardFailures).
			Int("notice_failures", outcome.NoticeFailures).
			Int("detail_failures", outcome.DetailFailures).
			Msg("crawl completed with partial failures")
	}

	log.Info().
		Str("version", commit.Version).
		Int("added", len(commit.Diff.Added)).
		Int("updated", len(commit.Diff.Updated)).
		Int("removed", len(commit.Diff.Removed)).
		Msg("snapshot committed")

	return CrawlResult{Outcome: outcome, Commit: commit}, nil
}

func asCircuitBreakerError(err error, target **snapshot.CircuitBreakerError) bool {
	cb, ok := err.(*snapshot.CircuitBreakerError)
	if ok {
		*target = cb
	}
	return ok
}

// RunOptions controls a combined `pipeline` invocation.
type RunOptions struct {
	SkipMap    bool
	ForceWrite bool
}

// Run implements the `pipeline` operation: map then crawl in one
// invocation, with an option to reuse an existing site map, per
// spec.md §4.11.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (CrawlResult, error) {
	var site *model.SiteMap

	if !opts.SkipMap {
		mapResult, err := p.Map(ctx)
		if err != nil {
			return CrawlResult{}, fmt.Errorf("pipeline: map stage: %w", err)
		}
		site = &mapResult.SiteMap
	}

	return p.Crawl(ctx, CrawlOptions{SiteMap: site, ForceWrite: opts.ForceWrite})
}

// BreakerConfig returns breaker.DefaultConfig(), the thresholds a
// snapshot.Store uses unless it is built with WithBreakerConfig; it
// does not read the thresholds of any particular store.
func BreakerConfig() breaker.Config {
	return breaker.DefaultConfig()
}
