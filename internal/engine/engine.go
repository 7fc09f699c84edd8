// Package engine wires configuration, credential pool, storage, extraction
// and dispatch into one scan run. It is the facade the CLI and pkg/core
// build on.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/leakwatch/leakwatch/internal/dispatch"
	"github.com/leakwatch/leakwatch/internal/extract"
	"github.com/leakwatch/leakwatch/internal/filter"
	"github.com/leakwatch/leakwatch/internal/ghsearch"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/session"
	"github.com/leakwatch/leakwatch/internal/store"
	"github.com/leakwatch/leakwatch/internal/types"
)

// Config controls one scan run: scope, credentials, pacing, and filters.
type Config struct {
	Credentials []ghsearch.Credential
	Rules       []rules.Rule

	// Pages is the page budget per query; per-page size is 1000/Pages.
	Pages       int
	Workers     int
	PageTimeout time.Duration
	// QueryInterval paces consecutive search calls within a session; zero
	// keeps the default.
	QueryInterval time.Duration

	ExcludeRepositories []string
	ExcludeContents     []string

	MailIgnoreHosts []string
	ProbeTimeout    time.Duration

	// StateDir hosts the findings database.
	StateDir string
}

// Result carries the per-rule outcomes and their aggregate.
type Result struct {
	Outcomes []types.RunOutcome
	Summary  dispatch.Summary
	Duration time.Duration
}

const defaultQueryInterval = 2 * time.Second

// Scan runs every configured rule to completion and returns the collected
// outcomes. Only configuration problems are errors; per-rule failures are
// reported inside the result.
func Scan(ctx context.Context, cfg Config) (Result, error) {
	var result Result

	// Per-page size is 1000/Pages, so a budget above 1000 would yield
	// zero-size pages.
	if cfg.Pages <= 0 || cfg.Pages > 1000 {
		return result, fmt.Errorf("page budget must be between 1 and 1000, got %d", cfg.Pages)
	}
	pool, err := ghsearch.NewPool(cfg.Credentials)
	if err != nil {
		return result, err
	}
	fl, err := filter.New(cfg.ExcludeRepositories, cfg.ExcludeContents)
	if err != nil {
		return result, err
	}
	db, err := store.Open(cfg.StateDir)
	if err != nil {
		return result, err
	}
	defer db.Close()

	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 4 * time.Second
	}
	queryInterval := cfg.QueryInterval
	if queryInterval <= 0 {
		queryInterval = defaultQueryInterval
	}

	client := ghsearch.NewClient(pool, 1000/cfg.Pages)
	prober := extract.NewHTTPProber(probeTimeout)
	extractor := extract.New(extract.NewMailScanner(cfg.MailIgnoreHosts, prober))
	sess := session.New(client, db, db, extractor, fl, session.Config{
		MaxPages:      cfg.Pages,
		PageTimeout:   cfg.PageTimeout,
		QueryInterval: queryInterval,
	})

	started := time.Now()
	outcomes, sum, err := dispatch.Run(ctx, cfg.Rules, sess.Run, cfg.Workers)
	if err != nil {
		return result, err
	}
	result.Outcomes = outcomes
	result.Summary = sum
	result.Duration = time.Since(started)
	return result, nil
}
