// Command uring is the CLI entrypoint for the notice-board crawler: it
// loads config/seed/locale from disk, builds the fetcher and snapshot
// store, and dispatches the map/crawl/validate/load/pipeline
// subcommands (map, crawl and pipeline go through the pipeline
// orchestrator, load reads the snapshot store, validate checks the
// loaded config and seed), per spec.md §6.
//
// Grounded on the teacher's cmd/crawler/main.go: a thin main that loads
// configuration, builds a *zerolog.Logger, and hands off to an internal
// package, with no CLI framework (cobra et al. never appear in the
// corpus) — just the standard library flag package plus a small
// subcommand dispatcher.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/uring/crawler/internal/config"
	"github.com/uring/crawler/internal/fetch"
	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/pipeline"
	"github.com/uring/crawler/internal/snapshot"
	"github.com/uring/crawler/internal/snapshot/localfs"
	"github.com/uring/crawler/internal/snapshot/s3store"
)

// globalFlags are accepted before the subcommand name, e.g.
// `uring --config c.toml --storage s3 crawl --site-map sm.json`.
type globalFlags struct {
	configPath string
	localePath string
	seedPath   string
	quiet      bool
	storage    string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out *os.File) int {
	gf, sub, subArgs, err := parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if sub == "" {
		fmt.Fprintln(os.Stderr, "usage: uring [global flags] <map|crawl|validate|load|pipeline> [flags]")
		return 2
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	if gf.quiet {
		logger = logger.Level(zerolog.WarnLevel)
	}

	cfg, err := config.LoadConfig(gf.configPath)
	if err != nil {
		logger.Error().Err(err).Msg("load config")
		return 1
	}
	seed, err := config.LoadSeed(gf.seedPath)
	if err != nil {
		logger.Error().Err(err).Msg("load seed")
		return 1
	}
	locale, err := config.LoadLocale(gf.localePath)
	if err != nil {
		logger.Error().Err(err).Msg("load locale")
		return 1
	}

	store, err := buildStore(context.Background(), gf.storage, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("build snapshot store")
		return 1
	}

	client := fetch.New(fetch.Options{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   time.Duration(cfg.Crawler.TimeoutSecs) * time.Second,
	})

	p := pipeline.New(cfg, seed, client, store, &logger)

	ctx := context.Background()

	switch sub {
	case "map":
		return cmdMap(ctx, p, store, cfg, seed, locale, &logger, subArgs)
	case "crawl":
		return cmdCrawl(ctx, p, &logger, subArgs)
	case "validate":
		return cmdValidate(cfg, seed, &logger)
	case "load":
		return cmdLoad(ctx, store, &logger, subArgs)
	case "pipeline":
		return cmdPipeline(ctx, p, &logger, subArgs)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", sub)
		return 2
	}
}

// parseGlobalFlags splits args at the first token that doesn't look
// like a flag, treating everything before it as global flags and
// everything after as the subcommand's own name plus flags.
func parseGlobalFlags(args []string) (globalFlags, string, []string, error) {
	var gf globalFlags

	fs := flag.NewFlagSet("uring", flag.ContinueOnError)
	fs.StringVar(&gf.configPath, "config", "config.toml", "path to config.toml")
	fs.StringVar(&gf.localePath, "locale", "locale.toml", "path to locale.toml")
	fs.StringVar(&gf.seedPath, "seed", "seed.toml", "path to seed.toml")
	fs.BoolVar(&gf.quiet, "quiet", false, "suppress info-level logging")
	fs.StringVar(&gf.storage, "storage", "local", "storage backend: local|s3")

	// flag.Parse stops at the first non-flag argument, so everything up
	// to the subcommand name is consumed here; fs.Args() leaves the
	// subcommand name and its own flags untouched.
	if err := fs.Parse(args); err != nil {
		return gf, "", nil, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return gf, "", nil, nil
	}
	return gf, rest[0], rest[1:], nil
}

func buildStore(ctx context.Context, backendName string, logger *zerolog.Logger) (*snapshot.Store, error) {
	env, err := config.LoadStorageEnv()
	if err != nil {
		return nil, fmt.Errorf("load storage env: %w", err)
	}

	switch backendName {
	case "s3":
		backend, err := s3store.New(ctx, s3store.Options{Bucket: env.S3Bucket, Prefix: env.S3Prefix})
		if err != nil {
			return nil, fmt.Errorf("build s3 backend: %w", err)
		}
		return snapshot.New(backend, logger,
			snapshot.WithDetailConcurrency(env.S3UploadConcurrency),
		), nil
	case "local", "":
		backend := localfs.New("./data", env.S3Prefix)
		return snapshot.New(backend, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want local|s3)", backendName)
	}
}

func cmdMap(ctx context.Context, p *pipeline.Pipeline, store *snapshot.Store, cfg config.Config, seed config.Seed, locale config.Locale, logger *zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("map", flag.ContinueOnError)
	force := fs.Bool("force", false, "remap even if a site map already exists")
	refreshDays := fs.Int("refresh-days", 0, "reserved: remap departments older than N days")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	_ = refreshDays // no partial-refresh mode is defined beyond a full remap

	if !*force {
		if _, err := store.LoadSiteMap(ctx); err == nil {
			logger.Info().Msg("site map already exists; pass --force to remap")
			return 0
		}
	}

	if _, err := p.Map(ctx); err != nil {
		logger.Error().Err(err).Msg("map failed")
		return 1
	}

	if err := store.SaveConfig(ctx, cfg, seed, locale); err != nil {
		logger.Error().Err(err).Msg("save config documents")
		return 1
	}

	return 0
}

func cmdCrawl(ctx context.Context, p *pipeline.Pipeline, logger *zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("crawl", flag.ContinueOnError)
	siteMapPath := fs.String("site-map", "", "path to a site map JSON file, overriding the persisted one")
	force := fs.Bool("force", false, "bypass the circuit breaker")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := pipeline.CrawlOptions{ForceWrite: *force}
	if *siteMapPath != "" {
		site, err := loadSiteMapFile(*siteMapPath)
		if err != nil {
			logger.Error().Err(err).Msg("load site map file")
			return 1
		}
		opts.SiteMap = &site
	}

	if _, err := p.Crawl(ctx, opts); err != nil {
		logger.Error().Err(err).Msg("crawl failed")
		return 1
	}
	return 0
}

func loadSiteMapFile(path string) (model.SiteMap, error) {
	var site model.SiteMap
	data, err := os.ReadFile(path)
	if err != nil {
		return site, fmt.Errorf("read site map %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &site); err != nil {
		return site, fmt.Errorf("parse site map %s: %w", path, err)
	}
	return site, nil
}

func cmdValidate(cfg config.Config, seed config.Seed, logger *zerolog.Logger) int {
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("config invalid")
		return 1
	}
	if err := seed.Validate(); err != nil {
		logger.Error().Err(err).Msg("seed invalid")
		return 1
	}
	logger.Info().Msg("config and seed are valid")
	return 0
}

func cmdLoad(ctx context.Context, store *snapshot.Store, logger *zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	from := fs.String("from", "new", `"new" or a YYYY-MM month`)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *from == "new" {
		items, ok, err := store.CurrentIndex(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("load current index")
			return 1
		}
		if !ok {
			logger.Error().Msg("no snapshot committed yet")
			return 1
		}
		logger.Info().Int("notices", len(items)).Msg("loaded current index")
		return 0
	}

	items, version, err := store.LoadByMonth(ctx, *from)
	if err != nil {
		logger.Error().Err(err).Str("month", *from).Msg("load month")
		return 1
	}
	logger.Info().Str("version", version).Int("notices", len(items)).Msg("loaded monthly index")
	return 0
}

func cmdPipeline(ctx context.Context, p *pipeline.Pipeline, logger *zerolog.Logger, args []string) int {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	skipMap := fs.Bool("skip-map", false, "reuse the last persisted site map instead of remapping")
	force := fs.Bool("force", false, "bypass the circuit breaker")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	_, err := p.Run(ctx, pipeline.RunOptions{SkipMap: *skipMap, ForceWrite: *force})
	if err != nil {
		logger.Error().Err(err).Msg("pipeline failed")
		return 1
	}
	return 0
}
