// Package dispatch fans a resolved rule set out across bounded concurrent
// search sessions and collects their outcomes.
package dispatch

import (
	"context"
	"errors"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/types"
)

// ErrNoRules marks an empty resolved rule set, which is a fatal
// configuration error rather than "nothing to do".
var ErrNoRules = errors.New("no rules resolved for the requested categories")

// RunFunc executes one rule's search session to completion.
type RunFunc func(ctx context.Context, r rules.Rule) types.RunOutcome

// Summary aggregates the per-rule outcomes for the reporting collaborator.
type Summary struct {
	Succeeded    int
	Failed       int
	Found        int
	PagesSkipped int
}

// Run spawns up to workers concurrent sessions, one per rule, and returns
// the outcomes in completion order. A session failure never fails the
// dispatcher; only an empty rule set does.
func Run(ctx context.Context, ruleSet []rules.Rule, run RunFunc, workers int) ([]types.RunOutcome, Summary, error) {
	if len(ruleSet) == 0 {
		return nil, Summary{}, ErrNoRules
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outc := make(chan types.RunOutcome, len(ruleSet))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range ruleSet {
		g.Go(func() error {
			log.Info().Str("rule", r.Summary()).Msg("session started")
			outc <- run(gctx, r)
			return nil
		})
	}
	_ = g.Wait()
	close(outc)

	outcomes := make([]types.RunOutcome, 0, len(ruleSet))
	var sum Summary
	for out := range outc {
		outcomes = append(outcomes, out)
		sum.PagesSkipped += out.PagesSkipped
		if out.Success {
			sum.Succeeded++
			sum.Found += out.Found
			log.Info().Str("rule", out.Rule).Int("found", out.Found).
				Int("pages_skipped", out.PagesSkipped).Msg("session done")
		} else {
			sum.Failed++
			log.Error().Str("rule", out.Rule).Str("reason", out.Message).Msg("session failed")
		}
	}
	return outcomes, sum, nil
}
