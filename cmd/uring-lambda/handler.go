// Package main's handler implements the Lambda-style invocation from
// spec.md §6: `{force_full?, campus?} -> {success, total_notices,
// new_notices, error?, execution_time_ms}`.
//
// Grounded on original_source/Crawler/src/bin/lambda.rs for the
// request/response shape. Per §9 Open Question (b), this handler never
// fabricates a "everything is new" diff after a config rotation: it
// always goes through the real C8 diff against whatever snapshot the
// store already holds, exactly as cmd/uring's `crawl`/`pipeline`
// subcommands do.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/uring/crawler/internal/config"
	"github.com/uring/crawler/internal/fetch"
	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/pipeline"
	"github.com/uring/crawler/internal/snapshot"
	"github.com/uring/crawler/internal/snapshot/s3store"
)

// Request is the Lambda event payload.
type Request struct {
	ForceFull bool   `json:"force_full"`
	Campus    string `json:"campus"`
}

// Response is the Lambda invocation result.
type Response struct {
	Success         bool   `json:"success"`
	TotalNotices    int    `json:"total_notices"`
	NewNotices      int    `json:"new_notices"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Handle runs one map+crawl (or crawl-only) invocation and reports the
// outcome in Lambda's expected shape. Config/seed loading failures,
// an unknown campus and crawl-domain failures surface as
// Response.Error with a nil Go error; a non-nil error return means the
// storage backend could not be set up (bad storage environment, bad
// AWS config), which the Lambda runtime reports as a function error
// distinct from an application-level failure.
func Handle(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("handler", "uring-lambda").Logger()

	cfg, err := config.LoadConfig(envOr("CONFIG_PATH", "config.toml"))
	if err != nil {
		return failure(start, fmt.Errorf("load config: %w", err)), nil
	}
	seed, err := config.LoadSeed(envOr("SEED_PATH", "seed.toml"))
	if err != nil {
		return failure(start, fmt.Errorf("load seed: %w", err)), nil
	}

	if req.Campus != "" {
		seed.Campuses = filterCampus(seed.Campuses, req.Campus)
		if len(seed.Campuses) == 0 {
			return failure(start, fmt.Errorf("no seed campus named %q", req.Campus)), nil
		}
	}

	storageEnv, err := config.LoadStorageEnv()
	if err != nil {
		return Response{}, fmt.Errorf("load storage env: %w", err)
	}
	backend, err := s3store.New(ctx, s3store.Options{Bucket: storageEnv.S3Bucket, Prefix: storageEnv.S3Prefix})
	if err != nil {
		return Response{}, fmt.Errorf("build s3 backend: %w", err)
	}
	store := snapshot.New(backend, &logger, snapshot.WithDetailConcurrency(storageEnv.S3UploadConcurrency))

	client := fetch.New(fetch.Options{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   time.Duration(cfg.Crawler.TimeoutSecs) * time.Second,
	})
	p := pipeline.New(cfg, seed, client, store, &logger)

	result, err := p.Run(ctx, pipeline.RunOptions{
		SkipMap:    !req.ForceFull,
		ForceWrite: req.ForceFull,
	})
	if err != nil {
		return failure(start, err), nil
	}

	return Response{
		Success:         true,
		TotalNotices:    len(result.Outcome.Notices),
		NewNotices:      len(result.Commit.Diff.Added),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func failure(start time.Time, err error) Response {
	return Response{
		Success:         false,
		Error:           err.Error(),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

func filterCampus(campuses []model.CampusInfo, name string) []model.CampusInfo {
	var out []model.CampusInfo
	for _, c := range campuses {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}
