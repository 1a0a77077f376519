// Package snapshot implements the snapshot store (C10): it lays out
// and atomically commits a new snapshot version under a versioned
// key-space prefix with a manifest, a success marker and a
// crash-safe latest-pointer swap, and exposes reads of the current
// snapshot, per spec.md §4.10.
//
// Store plays the same structural role the teacher's internal/storage.DB
// plays for Postgres -- a struct owning a client, exposing
// repository-style methods, logging every operation through
// *zerolog.Logger -- but backs onto a flat object key-space instead of
// SQL tables. Two Backend implementations (internal/snapshot/localfs,
// internal/snapshot/s3store) satisfy the same narrow interface.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/uring/crawler/internal/config"
	"github.com/uring/crawler/internal/model"
	"github.com/uring/crawler/internal/normalize"
	"github.com/uring/crawler/internal/platform/fanout"
	"github.com/uring/crawler/internal/safety/breaker"
	"github.com/uring/crawler/internal/safety/diff"
	"github.com/uring/crawler/internal/safety/index"
)

const (
	contentTypeJSON = "application/json"
	contentTypeTOML = "application/toml"

	cacheControlPointer = "public, max-age=10, stale-while-revalidate=300"
	cacheControlImmutable = "public, max-age=31536000, immutable"
	cacheControlAux       = "public, max-age=3600"

	keyLatest     = "latest.json"
	keyPrevious   = "previous.json"
	keySiteMap    = "config/siteMap.json"
	keyConfigTOML = "config/config.toml"
	keySeedTOML   = "config/seed.toml"
	keyLocaleTOML = "config/locale.toml"

	inProgressMarker = "_IN_PROGRESS"
	successMarker    = "_SUCCESS"
	manifestKey      = "_manifest.json"

	detailConcurrencyDefault = 16
	putMaxRetries            = 3
	putBaseDelay             = 200 * time.Millisecond
)

// Backend is the narrow object-store interface both snapshot backends
// implement: put/get/exists/list/delete over a flat key-space. The prefix
// (e.g. "uRing/") is applied inside the backend, never by callers, per
// spec.md §4.10.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType, cacheControl string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// TransientError marks a Backend failure as retryable (429, 5xx,
// timeouts, dispatch errors per spec.md §4.10/§7). Backends wrap
// transient failures in TransientError so Store's retry loop can tell
// them apart from fatal 4xx failures without importing backend-specific
// error types.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or a wrapped cause) is a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return asTransient(err, &t)
}

func asTransient(err error, target **TransientError) bool {
	for err != nil {
		if t, ok := err.(*TransientError); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CircuitBreakerError is returned by Commit when the circuit breaker
// refuses the write (Triggered or EmptyResult) and force write was not
// requested. The in-progress snapshot remains on disk but latest.json
// is not advanced, per spec.md §4.7/§7.
type CircuitBreakerError struct {
	Result breaker.Result
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("snapshot: circuit breaker %s (current=%d previous=%d drop=%.1f%%)",
		e.Result.Decision, e.Result.CurrentCount, e.Result.PreviousCount, e.Result.DropPercent)
}

// ErrNoSiteMap is returned by LoadSiteMap when no site map has been
// committed by a prior `map` run.
var ErrNoSiteMap = fmt.Errorf("snapshot: no site map committed")

// Store is the versioned, content-addressed snapshot store.
type Store struct {
	backend            Backend
	logger             *zerolog.Logger
	detailConcurrency  int
	breakerCfg         breaker.Config
	indexOpts          index.Options
}

// Option configures a Store.
type Option func(*Store)

// WithDetailConcurrency overrides the default bounded concurrency used
// to write per-notice detail files (default 16, spec.md's 16-32 range).
func WithDetailConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.detailConcurrency = n
		}
	}
}

// WithBreakerConfig overrides the circuit breaker's thresholds.
func WithBreakerConfig(cfg breaker.Config) Option {
	return func(s *Store) { s.breakerCfg = cfg }
}

// WithIndexOptions overrides the inverted-index tokenization options.
func WithIndexOptions(opts index.Options) Option {
	return func(s *Store) { s.indexOpts = opts }
}

// New builds a Store over backend.
func New(backend Backend, logger *zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:           backend,
		logger:            logger,
		detailConcurrency: detailConcurrencyDefault,
		breakerCfg:        breaker.DefaultConfig(),
		indexOpts:         index.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// manifestBuilder accumulates ManifestEntry records as objects are
// written, in call order; Commit sorts them by key before persisting.
type manifestBuilder struct {
	entries []model.ManifestEntry
}

func (m *manifestBuilder) record(key string, data []byte, contentType, cacheControl string) {
	sum := sha256.Sum256(data)
	m.entries = append(m.entries, model.ManifestEntry{
		Key:          key,
		Bytes:        int64(len(data)),
		SHA256:       hex.EncodeToString(sum[:]),
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
}

// putWithRetry writes data to key, retrying transient failures with
// capped exponential backoff (base * 2^attempt, base ~200ms, default 3
// retries per spec.md §4.10/§7); 4xx-class failures are not retried.
func (s *Store) putWithRetry(ctx context.Context, key string, data []byte, contentType, cacheControl string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = putBaseDelay
	b.Multiplier = 2

	operation := func() error {
		err := s.backend.Put(ctx, key, data, contentType, cacheControl)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, putMaxRetries), ctx))
}

func (s *Store) writeJSON(ctx context.Context, mb *manifestBuilder, key string, v interface{}, cacheControl string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("snapshot: marshal %s: %w", key, err)
	}
	if err := s.putWithRetry(ctx, key, data, contentTypeJSON, cacheControl); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", key, err)
	}
	mb.record(key, data, contentTypeJSON, cacheControl)
	return nil
}

// SaveSiteMap writes the mapper's output to config/siteMap.json.
func (s *Store) SaveSiteMap(ctx context.Context, site model.SiteMap) error {
	data, err := json.MarshalIndent(site, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: marshal site map: %w", err)
	}
	if err := s.putWithRetry(ctx, keySiteMap, data, contentTypeJSON, cacheControlAux); err != nil {
		return fmt.Errorf("snapshot: write site map: %w", err)
	}
	return nil
}

// LoadSiteMap reads the most recently committed site map.
func (s *Store) LoadSiteMap(ctx context.Context) (model.SiteMap, error) {
	var site model.SiteMap

	ok, err := s.backend.Exists(ctx, keySiteMap)
	if err != nil {
		return site, fmt.Errorf("snapshot: check site map: %w", err)
	}
	if !ok {
		return site, ErrNoSiteMap
	}

	data, err := s.backend.Get(ctx, keySiteMap)
	if err != nil {
		return site, fmt.Errorf("snapshot: read site map: %w", err)
	}
	if err := json.Unmarshal(data, &site); err != nil {
		return site, fmt.Errorf("snapshot: parse site map: %w", err)
	}
	return site, nil
}

// CurrentPointer reads latest.json, returning ok=false if no snapshot
// has ever been committed.
func (s *Store) CurrentPointer(ctx context.Context) (model.SnapshotPointer, bool, error) {
	var ptr model.SnapshotPointer

	ok, err := s.backend.Exists(ctx, keyLatest)
	if err != nil {
		return ptr, false, fmt.Errorf("snapshot: check latest pointer: %w", err)
	}
	if !ok {
		return ptr, false, nil
	}

	data, err := s.backend.Get(ctx, keyLatest)
	if err != nil {
		return ptr, false, fmt.Errorf("snapshot: read latest pointer: %w", err)
	}
	if err := json.Unmarshal(data, &ptr); err != nil {
		return ptr, false, fmt.Errorf("snapshot: parse latest pointer: %w", err)
	}

	success, err := s.backend.Exists(ctx, snapshotKey(ptr.Version, successMarker))
	if err != nil {
		return ptr, false, fmt.Errorf("snapshot: check success marker: %w", err)
	}
	if !success {
		// latest.json names a version with no _SUCCESS: treat as absent,
		// per spec.md §8's snapshot-atomicity property.
		return model.SnapshotPointer{}, false, nil
	}

	return ptr, true, nil
}

// CurrentIndex resolves the current snapshot and returns its full
// index/all.json. ok is false if no snapshot is committed yet.
func (s *Store) CurrentIndex(ctx context.Context) ([]model.NoticeIndexItem, bool, error) {
	ptr, ok, err := s.CurrentPointer(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	items, err := s.readIndexAll(ctx, ptr.Version)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (s *Store) readIndexAll(ctx context.Context, version string) ([]model.NoticeIndexItem, error) {
	data, err := s.backend.Get(ctx, snapshotKey(version, "index/all.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read index/all.json for %s: %w", version, err)
	}
	var items []model.NoticeIndexItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("snapshot: parse index/all.json for %s: %w", version, err)
	}
	return items, nil
}

// LoadByMonth searches committed snapshot versions for the most recent
// one stamped in yyyymm (format "YYYY-MM") and returns its full index.
// Versions are named "YYYYMMDDhhmmss-<hex>"; this treats monthly
// partitions as a view over the hot index/all.json rather than a
// separate cold-data format, per the Glossary's "Cold data / Hot data"
// note.
func (s *Store) LoadByMonth(ctx context.Context, yyyymm string) ([]model.NoticeIndexItem, string, error) {
	stamp := strings.ReplaceAll(yyyymm, "-", "")
	if len(stamp) != 6 {
		return nil, "", fmt.Errorf("snapshot: invalid month %q, want YYYY-MM", yyyymm)
	}

	keys, err := s.backend.List(ctx, "snapshots/")
	if err != nil {
		return nil, "", fmt.Errorf("snapshot: list snapshots: %w", err)
	}

	versions := make(map[string]bool)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, "snapshots/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) < 1 || parts[0] == "" {
			continue
		}
		if strings.HasPrefix(parts[0], stamp) {
			versions[parts[0]] = true
		}
	}

	var best string
	for v := range versions {
		if v > best {
			ok, err := s.backend.Exists(ctx, snapshotKey(v, successMarker))
			if err == nil && ok {
				if v > best {
					best = v
				}
			}
		}
	}

	if best == "" {
		return nil, "", fmt.Errorf("snapshot: no committed snapshot found for month %s", yyyymm)
	}

	items, err := s.readIndexAll(ctx, best)
	if err != nil {
		return nil, "", err
	}
	return items, best, nil
}

func snapshotKey(version, rest string) string {
	return fmt.Sprintf("snapshots/%s/%s", version, rest)
}

// CommitInput is the input to Commit: the crawl's output plus the
// options governing the circuit-breaker gate.
type CommitInput struct {
	Notices    []model.Notice
	Outcome    model.CrawlOutcome
	StartedAt  time.Time
	ForceWrite bool
}

// CommitResult summarizes one Commit call, including the circuit
// breaker verdict and (if the write proceeded) the diff and index it
// produced.
type CommitResult struct {
	Version   string
	Breaker   breaker.Result
	Committed bool
	Diff      model.Diff
	Index     model.InvertedIndex
}

// Commit implements the crash-safe commit protocol from spec.md §4.10:
// write _IN_PROGRESS, load the previous snapshot's index for the diff
// and circuit-breaker baseline, gate on the circuit breaker, write
// details/index/meta/aux/manifest/_SUCCESS in that deterministic order,
// then swap the latest/previous pointers.
func (s *Store) Commit(ctx context.Context, in CommitInput) (CommitResult, error) {
	version := versionFor(in.StartedAt)
	result := CommitResult{Version: version}

	if err := s.putWithRetry(ctx, snapshotKey(version, inProgressMarker), []byte(version), "text/plain", cacheControlAux); err != nil {
		return result, fmt.Errorf("snapshot: write _IN_PROGRESS: %w", err)
	}

	prevPtr, havePrev, err := s.CurrentPointer(ctx)
	if err != nil {
		return result, err
	}

	var previousNotices []model.NoticeIndexItem
	if havePrev {
		previousNotices, err = s.readIndexAll(ctx, prevPtr.Version)
		if err != nil {
			return result, err
		}
	}

	br := breaker.New(s.breakerCfg)
	verdict := br.Check(len(in.Notices), len(previousNotices))
	result.Breaker = verdict

	if !verdict.Safe() && !in.ForceWrite {
		s.logger.Warn().
			Str("version", version).
			Str("decision", string(verdict.Decision)).
			Int("current", verdict.CurrentCount).
			Int("previous", verdict.PreviousCount).
			Msg("circuit breaker refused snapshot commit")
		return result, &CircuitBreakerError{Result: verdict}
	}

	items := buildIndexItems(in.Notices)

	previousForDiff, err := s.previousNoticesForDiff(ctx, prevPtr, havePrev)
	if err != nil {
		return result, err
	}
	d := diff.Calculate(previousForDiff, in.Notices)
	result.Diff = d

	idx := index.Build(items, in.Notices, s.indexOpts)
	result.Index = idx

	mb := &manifestBuilder{}

	if err := s.writeDetails(ctx, mb, version, in.Notices); err != nil {
		return result, err
	}
	if err := s.writeIndices(ctx, mb, version, in.Notices, items); err != nil {
		return result, err
	}
	if err := s.writeIndexFile(ctx, mb, version, "index/all.json", items); err != nil {
		return result, err
	}
	if err := s.writeTokenIndex(ctx, mb, version, idx); err != nil {
		return result, err
	}
	if err := s.writeMeta(ctx, mb, version, in.Notices, items); err != nil {
		return result, err
	}
	if err := s.writeAux(ctx, mb, version, in, d, idx); err != nil {
		return result, err
	}

	sort.Slice(mb.entries, func(i, j int) bool { return mb.entries[i].Key < mb.entries[j].Key })

	manifest := model.SnapshotManifest{
		SchemaVersion: 1,
		Version:       version,
		StartedAt:     in.StartedAt,
		FinishedAt:    time.Now().UTC(),
		Entries:       mb.entries,
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return result, fmt.Errorf("snapshot: marshal manifest: %w", err)
	}
	if err := s.putWithRetry(ctx, snapshotKey(version, manifestKey), manifestData, contentTypeJSON, cacheControlImmutable); err != nil {
		return result, fmt.Errorf("snapshot: write manifest: %w", err)
	}

	if err := s.putWithRetry(ctx, snapshotKey(version, successMarker), []byte(version), "text/plain", cacheControlImmutable); err != nil {
		return result, fmt.Errorf("snapshot: write _SUCCESS: %w", err)
	}

	_ = s.backend.Delete(ctx, snapshotKey(version, inProgressMarker))

	if err := s.swapPointer(ctx, version, prevPtr, havePrev); err != nil {
		return result, err
	}

	result.Committed = true
	return result, nil
}

// previousNoticesForDiff reconstructs just-enough model.Notice values
// (id + content hash) from the previous snapshot's compact index so
// the diff calculator can compare against it without re-reading every
// detail file.
func (s *Store) previousNoticesForDiff(ctx context.Context, ptr model.SnapshotPointer, havePrev bool) ([]model.Notice, error) {
	if !havePrev {
		return nil, nil
	}
	items, err := s.readIndexAll(ctx, ptr.Version)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notice, len(items))
	for i, it := range items {
		out[i] = model.Notice{ID: it.ID, ContentHash: it.ContentHash}
	}
	return out, nil
}

func buildIndexItems(notices []model.Notice) []model.NoticeIndexItem {
	items := make([]model.NoticeIndexItem, len(notices))
	for i, n := range notices {
		items[i] = model.NoticeIndexItem{
			ID:             n.ID,
			Title:          n.Title,
			Date:           n.Date,
			Link:           n.Link,
			DepartmentName: n.DepartmentName,
			BoardName:      n.BoardName,
			Category:       normalize.Category(n.BoardName),
			ContentHash:    n.ContentHash,
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Store) writeDetails(ctx context.Context, mb *manifestBuilder, version string, notices []model.Notice) error {
	type detailResult struct {
		key  string
		data []byte
		err  error
	}

	results := fanout.Map(notices, s.detailConcurrency, func(n model.Notice) detailResult {
		key := snapshotKey(version, fmt.Sprintf("detail/%s.json", n.ID))
		data, err := json.Marshal(n)
		if err != nil {
			return detailResult{err: fmt.Errorf("snapshot: marshal detail %s: %w", n.ID, err)}
		}
		if err := s.putWithRetry(ctx, key, data, contentTypeJSON, cacheControlImmutable); err != nil {
			return detailResult{err: fmt.Errorf("snapshot: write detail %s: %w", n.ID, err)}
		}
		return detailResult{key: key, data: data}
	})

	for _, r := range results {
		if r.err != nil {
			return r.err
		}
		mb.record(r.key, r.data, contentTypeJSON, cacheControlImmutable)
	}
	return nil
}

func (s *Store) writeIndexFile(ctx context.Context, mb *manifestBuilder, version, rel string, v interface{}) error {
	return s.writeJSON(ctx, mb, snapshotKey(version, rel), v, cacheControlImmutable)
}

func (s *Store) writeIndices(ctx context.Context, mb *manifestBuilder, version string, notices []model.Notice, items []model.NoticeIndexItem) error {
	campusByID := make(map[string]string, len(notices))
	for _, n := range notices {
		campusByID[n.ID] = n.Campus
	}

	byCampus := make(map[string][]model.NoticeIndexItem)
	byCategory := make(map[string][]model.NoticeIndexItem)

	for _, it := range items {
		byCategory[it.Category] = append(byCategory[it.Category], it)
		byCampus[campusSlug(campusByID[it.ID])] = append(byCampus[campusSlug(campusByID[it.ID])], it)
	}

	for category, group := range byCategory {
		if err := s.writeIndexFile(ctx, mb, version, fmt.Sprintf("index/category/%s.json", category), group); err != nil {
			return err
		}
	}
	for campusID, group := range byCampus {
		if err := s.writeIndexFile(ctx, mb, version, fmt.Sprintf("index/campus/%s.json", campusID), group); err != nil {
			return err
		}
	}
	return nil
}

// campusSlug converts a campus display name into a filesystem/object
// key-safe identifier for index/campus/<campus_id>.json.
func campusSlug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		default:
			return -1
		}
	}, name)
	if name == "" {
		return "unknown"
	}
	return name
}

func (s *Store) writeTokenIndex(ctx context.Context, mb *manifestBuilder, version string, idx model.InvertedIndex) error {
	return s.writeIndexFile(ctx, mb, version, "index/search.json", idx)
}

func (s *Store) writeMeta(ctx context.Context, mb *manifestBuilder, version string, notices []model.Notice, items []model.NoticeIndexItem) error {
	campusCounts := make(map[string]int)
	categoryCounts := make(map[string]int)
	sourceCounts := make(map[string]int)

	for _, n := range notices {
		campusCounts[n.Campus]++
	}
	for _, it := range items {
		categoryCounts[it.Category]++
		sourceCounts[it.BoardName]++
	}

	if err := s.writeJSON(ctx, mb, snapshotKey(version, "meta/campus.json"), campusCounts, cacheControlImmutable); err != nil {
		return err
	}
	if err := s.writeJSON(ctx, mb, snapshotKey(version, "meta/category.json"), categoryCounts, cacheControlImmutable); err != nil {
		return err
	}
	if err := s.writeJSON(ctx, mb, snapshotKey(version, "meta/source.json"), sourceCounts, cacheControlImmutable); err != nil {
		return err
	}
	return nil
}

func (s *Store) writeAux(ctx context.Context, mb *manifestBuilder, version string, in CommitInput, d model.Diff, idx model.InvertedIndex) error {
	stats := map[string]interface{}{
		"board_total":     in.Outcome.BoardTotal,
		"board_failures":  in.Outcome.BoardFailures,
		"notice_total":    in.Outcome.NoticeTotal,
		"notice_failures": in.Outcome.NoticeFailures,
		"detail_total":    in.Outcome.DetailTotal,
		"detail_failures": in.Outcome.DetailFailures,
		"notice_count":    len(in.Notices),
		"token_count":     idx.TokenCount,
	}

	if err := s.writeJSON(ctx, mb, snapshotKey(version, "aux/diff.json"), d, cacheControlAux); err != nil {
		return err
	}
	if err := s.writeJSON(ctx, mb, snapshotKey(version, "aux/stats.json"), stats, cacheControlAux); err != nil {
		return err
	}
	if err := s.writeJSON(ctx, mb, snapshotKey(version, "aux/outcome.json"), in.Outcome, cacheControlAux); err != nil {
		return err
	}
	if len(in.Outcome.Errors) > 0 {
		if err := s.writeJSON(ctx, mb, snapshotKey(version, "aux/errors.json"), in.Outcome.Errors, cacheControlAux); err != nil {
			return err
		}
	}
	return nil
}

// swapPointer implements spec.md §4.10 step 7: write previous.json
// (the old pointer, if any), then overwrite latest.json.
func (s *Store) swapPointer(ctx context.Context, version string, prevPtr model.SnapshotPointer, havePrev bool) error {
	if havePrev {
		data, err := json.Marshal(prevPtr)
		if err != nil {
			return fmt.Errorf("snapshot: marshal previous pointer: %w", err)
		}
		if err := s.putWithRetry(ctx, keyPrevious, data, contentTypeJSON, cacheControlPointer); err != nil {
			return fmt.Errorf("snapshot: write previous.json: %w", err)
		}
	}

	newPtr := model.SnapshotPointer{Version: version, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(newPtr)
	if err != nil {
		return fmt.Errorf("snapshot: marshal latest pointer: %w", err)
	}
	if err := s.putWithRetry(ctx, keyLatest, data, contentTypeJSON, cacheControlPointer); err != nil {
		return fmt.Errorf("snapshot: write latest.json: %w", err)
	}
	return nil
}

// versionFor formats the snapshot version id from a start time, per
// spec.md §3: "YYYYMMDDhhmmss-<hex-nanos>".
func versionFor(t time.Time) string {
	return fmt.Sprintf("%s-%x", t.UTC().Format("20060102150405"), t.UnixNano())
}

// SaveConfig persists the parsed config/seed/locale documents as TOML
// under config/, so a fresh `crawl` invocation (or an auditor) can
// recover exactly what produced a given site map, per spec.md §4.10.
func (s *Store) SaveConfig(ctx context.Context, cfg config.Config, seed config.Seed, locale config.Locale) error {
	cfgData, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("snapshot: marshal config: %w", err)
	}
	if err := s.putWithRetry(ctx, keyConfigTOML, cfgData, contentTypeTOML, cacheControlAux); err != nil {
		return fmt.Errorf("snapshot: write config.toml: %w", err)
	}

	seedData, err := toml.Marshal(seed)
	if err != nil {
		return fmt.Errorf("snapshot: marshal seed: %w", err)
	}
	if err := s.putWithRetry(ctx, keySeedTOML, seedData, contentTypeTOML, cacheControlAux); err != nil {
		return fmt.Errorf("snapshot: write seed.toml: %w", err)
	}

	localeData, err := toml.Marshal(locale)
	if err != nil {
		return fmt.Errorf("snapshot: marshal locale: %w", err)
	}
	if err := s.putWithRetry(ctx, keyLocaleTOML, localeData, contentTypeTOML, cacheControlAux); err != nil {
		return fmt.Errorf("snapshot: write locale.toml: %w", err)
	}

	return nil
}
