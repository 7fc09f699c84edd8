package ghsearch

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v30/github"
	"golang.org/x/oauth2"

	"github.com/leakwatch/leakwatch/internal/types"
)

// Client implements the engine's search API on top of go-github. Every call
// picks a credential at random from the pool, so quota usage spreads per
// query rather than per session.
type Client struct {
	pool    *Pool
	perPage int

	mu      sync.Mutex
	clients map[string]*github.Client
}

// NewClient builds a Client with the given per-page size.
func NewClient(pool *Pool, perPage int) *Client {
	return &Client{
		pool:    pool,
		perPage: perPage,
		clients: make(map[string]*github.Client),
	}
}

// PerPage returns the fixed page size used by SearchCode.
func (c *Client) PerPage() int {
	return c.perPage
}

func newGitHubClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts))
}

func (c *Client) pick(ctx context.Context) *github.Client {
	cred := c.pool.Pick()
	c.mu.Lock()
	defer c.mu.Unlock()
	gh, ok := c.clients[cred.Token]
	if !ok {
		gh = newGitHubClient(ctx, cred.Token)
		c.clients[cred.Token] = gh
	}
	return gh
}

// SearchCode runs one code-search query page, sorted by most-recently-indexed
// descending. Pages are 1-based. It returns the reported total result count
// alongside the page's hits.
func (c *Client) SearchCode(ctx context.Context, query string, page int) (int, []types.RawHit, error) {
	opts := &github.SearchOptions{
		Sort:  "indexed",
		Order: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: c.perPage,
		},
	}
	res, _, err := c.pick(ctx).Search.Code(ctx, query, opts)
	if err != nil {
		return 0, nil, err
	}
	hits := make([]types.RawHit, 0, len(res.CodeResults))
	for _, cr := range res.CodeResults {
		hits = append(hits, types.RawHit{
			URL:        strings.TrimSpace(cr.GetHTMLURL()),
			SHA:        strings.TrimSpace(cr.GetSHA()),
			Path:       strings.TrimSpace(cr.GetPath()),
			Repository: strings.TrimSpace(cr.GetRepository().GetFullName()),
		})
	}
	return res.GetTotal(), hits, nil
}

// FetchBlob retrieves and decodes the file content for a hit.
func (c *Client) FetchBlob(ctx context.Context, repository, sha string) (string, error) {
	owner, name, ok := strings.Cut(repository, "/")
	if !ok {
		return "", fmt.Errorf("malformed repository name %q", repository)
	}
	blob, _, err := c.pick(ctx).Git.GetBlob(ctx, owner, name, sha)
	if err != nil {
		return "", err
	}
	content := blob.GetContent()
	if blob.GetEncoding() == "base64" {
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("decode blob %s: %w", sha, err)
		}
		return string(raw), nil
	}
	return content, nil
}

// SearchRate reports the current code-search rate-limit headroom and its
// reset time.
func (c *Client) SearchRate(ctx context.Context) (int, time.Time, error) {
	limits, _, err := c.pick(ctx).RateLimits(ctx)
	if err != nil {
		return 0, time.Time{}, err
	}
	search := limits.GetSearch()
	if search == nil {
		return 0, time.Time{}, fmt.Errorf("rate limit response missing search quota")
	}
	return search.Remaining, search.Reset.Time, nil
}
