// Package ghsearch wraps the GitHub code-search API behind the small surface
// the engine needs: paginated query, blob fetch, and rate-limit
// introspection. A credential pool spreads quota usage across configured
// identities with a uniform random pick per call.
package ghsearch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/go-github/v30/github"
	"github.com/rs/zerolog/log"

	"github.com/leakwatch/leakwatch/internal/validate"
)

// Credential is one GitHub API identity.
type Credential struct {
	ID    string
	Token string
}

// ErrNoCredentials is returned when the pool would be empty.
var ErrNoCredentials = errors.New("no github credentials configured")

// Pool rotates among available credentials. There is no session affinity and
// no quota accounting; rate-limit observation is the session's job.
type Pool struct {
	creds []Credential
}

// NewPool builds a pool from the configured credentials. Tokens that do not
// look like GitHub tokens are kept but logged, since classic 40-hex tokens
// and fine-grained tokens both occur in the wild.
func NewPool(creds []Credential) (*Pool, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}
	for _, c := range creds {
		if c.Token == "" {
			return nil, fmt.Errorf("credential %q has an empty token", c.ID)
		}
		if !validate.LooksLikeGitHubToken(c.Token) && !validate.IsHex(c.Token) {
			log.Warn().Str("credential", c.ID).Msg("token does not look like a GitHub token")
		}
	}
	return &Pool{creds: append([]Credential(nil), creds...)}, nil
}

// Pick chooses one credential uniformly at random.
func (p *Pool) Pick() Credential {
	return p.creds[rand.IntN(len(p.creds))]
}

// Credentials returns a copy of the pool contents, for diagnostics.
func (p *Pool) Credentials() []Credential {
	return append([]Credential(nil), p.creds...)
}

// Verify issues a lightweight authenticated rate-limit probe for a single
// credential and reports quota-check success or the upstream failure reason.
// Diagnostic path only, never used by the scan loop.
func Verify(ctx context.Context, cred Credential) (bool, string) {
	gh := newGitHubClient(ctx, cred.Token)
	limits, _, err := gh.RateLimits(ctx)
	if err != nil {
		return false, fmt.Sprintf("TOKEN-FAILED: %v", err)
	}
	return true, quotaStatus(limits)
}

// quotaStatus renders the probe result. Either quota block can be absent in
// the response, so a bare pass is reported when one is missing.
func quotaStatus(limits *github.RateLimits) string {
	core, search := limits.GetCore(), limits.GetSearch()
	if core == nil || search == nil {
		return "TOKEN-PASSED"
	}
	return fmt.Sprintf("TOKEN-PASSED: core %d/%d search %d/%d",
		core.Remaining, core.Limit, search.Remaining, search.Limit)
}
