// Package session runs one rule's search against the remote code-search API:
// query construction per extension, rate-limit-aware pagination, context
// extraction, dedup, false-positive filtering, and idempotent finding
// persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/leakwatch/leakwatch/internal/extract"
	"github.com/leakwatch/leakwatch/internal/filter"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/types"
)

// searchResultCap is the remote API's hard result window; anything beyond it
// is unreachable regardless of pagination.
const searchResultCap = 1000

// quotaFloor is the remaining-search-calls threshold below which a session
// waits for the quota reset instead of issuing the next query.
const quotaFloor = 1

// API is the paginated, rate-limited query surface the session consumes.
type API interface {
	// SearchCode runs one 1-based result page of a query and returns the
	// reported total hit count alongside the page's hits.
	SearchCode(ctx context.Context, query string, page int) (int, []types.RawHit, error)
	// FetchBlob retrieves decoded file content for a hit.
	FetchBlob(ctx context.Context, repository, sha string) (string, error)
	// SearchRate reports remaining search quota and its reset time.
	SearchRate(ctx context.Context) (int, time.Time, error)
	// PerPage is the fixed page size.
	PerPage() int
}

// Deduper is the atomic insert-if-absent membership test for blob hashes.
type Deduper interface {
	InsertIfAbsent(blobHash string) (bool, error)
}

// Sink receives accepted findings via idempotent upsert.
type Sink interface {
	UpsertFinding(f types.Finding) (bool, error)
}

// State names the session's position in its lifecycle, for logs.
type State string

const (
	StateIdle       State = "idle"
	StateQuerying   State = "querying"
	StatePaginating State = "paginating"
	StateExtracting State = "extracting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Config tunes a session factory.
type Config struct {
	// MaxPages caps pagination when the reported total exceeds the result
	// window.
	MaxPages int
	// PageTimeout bounds each page fetch; a timed-out page is skipped, not
	// fatal.
	PageTimeout time.Duration
	// QueryInterval paces consecutive search calls within one session.
	// Zero disables pacing (tests).
	QueryInterval time.Duration
}

// Session holds the collaborators shared by rule runs. Each Run invocation is
// an independent search lifecycle; Session itself is reusable across rules.
type Session struct {
	api         API
	dedup       Deduper
	sink        Sink
	extractor   *extract.Extractor
	filter      *filter.Filter
	maxPages    int
	pageTimeout time.Duration
	limiter     *rate.Limiter
}

// New builds a session factory over the given collaborators.
func New(api API, dedup Deduper, sink Sink, ex *extract.Extractor, fl *filter.Filter, cfg Config) *Session {
	limit := rate.Inf
	if cfg.QueryInterval > 0 {
		limit = rate.Every(cfg.QueryInterval)
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	pageTimeout := cfg.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = 30 * time.Second
	}
	return &Session{
		api:         api,
		dedup:       dedup,
		sink:        sink,
		extractor:   ex,
		filter:      fl,
		maxPages:    maxPages,
		pageTimeout: pageTimeout,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

type ruleRun struct {
	s        *Session
	rule     rules.Rule
	state    State
	accepted map[string]types.Finding
	excluded map[string]types.Finding
	skipped  int
}

func (rr *ruleRun) setState(st State) {
	rr.state = st
	log.Debug().Str("rule", rr.rule.Summary()).Str("state", string(st)).Msg("session transition")
}

// Run executes the rule's search session to completion. Failures never
// propagate as errors; they land in the outcome so one rule cannot affect
// another.
func (s *Session) Run(ctx context.Context, r rules.Rule) types.RunOutcome {
	rr := &ruleRun{
		s:        s,
		rule:     r,
		state:    StateIdle,
		accepted: make(map[string]types.Finding),
		excluded: make(map[string]types.Finding),
	}
	out := types.RunOutcome{Time: time.Now(), Rule: r.Summary()}

	for _, ext := range r.Extensions {
		if err := rr.searchExtension(ctx, ext); err != nil {
			rr.setState(StateFailed)
			out.Message = err.Error()
			out.PagesSkipped = rr.skipped
			return out
		}
	}
	rr.setState(StateDone)
	out.Success = true
	out.Found = len(rr.accepted)
	out.PagesSkipped = rr.skipped
	if len(rr.excluded) > 0 {
		log.Info().Str("rule", r.Summary()).Int("excluded", len(rr.excluded)).
			Msg("hits retained in excluded bucket")
	}
	return out
}

func (rr *ruleRun) searchExtension(ctx context.Context, ext string) error {
	s := rr.s
	rr.setState(StateQuerying)
	if err := s.waitForQuota(ctx); err != nil {
		return err
	}
	query := fmt.Sprintf("%s extension:%s", rr.rule.Keyword, ext)
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	// The initial query both reports the total and yields the first page;
	// any error here is session-fatal.
	total, hits, err := s.fetchPage(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("query %q: %w", query, err)
	}
	rr.processHits(ctx, hits)

	pages := pageCount(total, s.api.PerPage(), s.maxPages)
	rr.setState(StatePaginating)
	for page := 2; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		_, hits, err := s.fetchPage(ctx, query, page)
		if err != nil {
			if isTimeout(err) && ctx.Err() == nil {
				rr.skipped++
				log.Warn().Str("query", query).Int("page", page).Msg("page fetch timed out, skipping")
				continue
			}
			return fmt.Errorf("page %d of query %q: %w", page, query, err)
		}
		rr.processHits(ctx, hits)
	}
	return nil
}

func (rr *ruleRun) processHits(ctx context.Context, hits []types.RawHit) {
	s := rr.s
	rr.setState(StateExtracting)
	for _, hit := range hits {
		if ctx.Err() != nil {
			return
		}
		canonical := CanonicalRepoURL(hit.URL)
		if canonical == "" {
			// hit URL outside the expected shape is unusable
			continue
		}
		content, err := s.api.FetchBlob(ctx, hit.Repository, hit.SHA)
		if err != nil {
			continue
		}
		inserted, err := s.dedup.InsertIfAbsent(hit.SHA)
		if err != nil {
			log.Warn().Err(err).Str("sha", hit.SHA).Msg("dedup store error")
			continue
		}
		if !inserted {
			continue
		}
		matches := s.extractor.Extract(ctx, content, rr.rule)
		if len(matches) == 0 {
			continue
		}
		f := types.Finding{
			Hash:    FindingHash(canonical, rr.rule.Corp),
			URL:     canonical,
			Rule:    rr.rule.Corp,
			Keyword: rr.rule.Keyword,
			Matches: matches,
		}
		if s.filter.ExcludedRepository(hit.Repository, hit.Path) || s.filter.ExcludedContent(matches) {
			rr.excluded[f.Hash] = f
			continue
		}
		rr.accepted[f.Hash] = f
		if _, err := s.sink.UpsertFinding(f); err != nil {
			log.Warn().Err(err).Str("url", f.URL).Msg("finding upsert failed")
		}
	}
	rr.setState(StatePaginating)
}

func (s *Session) fetchPage(ctx context.Context, query string, page int) (int, []types.RawHit, error) {
	pctx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()
	return s.api.SearchCode(pctx, query, page)
}

func (s *Session) waitForQuota(ctx context.Context) error {
	remaining, reset, err := s.api.SearchRate(ctx)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if remaining > quotaFloor {
		return nil
	}
	wait := time.Until(reset)
	if wait <= 0 {
		return nil
	}
	log.Info().Dur("wait", wait).Msg("search quota exhausted, waiting for reset")
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pageCount applies the pagination policy: one page when the total fits in a
// page, the configured cap when the total exceeds the result window, ceiling
// division otherwise. A page size below 1 falls back to the cap so a
// misconfigured API can never divide by zero inside a session.
func pageCount(total, perPage, maxPages int) int {
	if perPage < 1 {
		return maxPages
	}
	switch {
	case total < perPage:
		return 1
	case total > searchResultCap:
		return maxPages
	default:
		return (total + perPage - 1) / perPage
	}
}

var repoURLPattern = regexp.MustCompile(`(https://github\.com/[a-zA-Z0-9_.+-]+/[a-zA-Z0-9_.+-]+)/\w+`)

// CanonicalRepoURL reduces a file URL to its repository root URL, or ""
// when the URL does not match the expected shape.
func CanonicalRepoURL(fileURL string) string {
	m := repoURLPattern.FindStringSubmatch(fileURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// FindingHash derives the idempotency key for a finding from the canonical
// repository URL and the rule scope.
func FindingHash(canonicalURL, corp string) string {
	sum := xxhash.Sum64String(canonicalURL + "\x00" + corp)
	var buf [16]byte
	const hexdigits = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hexdigits[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
