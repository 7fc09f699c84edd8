package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leakwatch/leakwatch/internal/extract"
	"github.com/leakwatch/leakwatch/internal/filter"
	"github.com/leakwatch/leakwatch/internal/rules"
	"github.com/leakwatch/leakwatch/internal/types"
)

type fakeAPI struct {
	perPage   int
	total     int
	pages     map[int][]types.RawHit
	pageErr   map[int]error
	blobs     map[string]string
	remaining int
	reset     time.Time
	rateErr   error
}

func (f *fakeAPI) SearchCode(_ context.Context, _ string, page int) (int, []types.RawHit, error) {
	if err := f.pageErr[page]; err != nil {
		return 0, nil, err
	}
	return f.total, f.pages[page], nil
}

func (f *fakeAPI) FetchBlob(_ context.Context, _, sha string) (string, error) {
	content, ok := f.blobs[sha]
	if !ok {
		return "", errors.New("no blob")
	}
	return content, nil
}

func (f *fakeAPI) SearchRate(context.Context) (int, time.Time, error) {
	if f.rateErr != nil {
		return 0, time.Time{}, f.rateErr
	}
	return f.remaining, f.reset, nil
}

func (f *fakeAPI) PerPage() int { return f.perPage }

type fakeDedup struct {
	seen map[string]bool
}

func (f *fakeDedup) InsertIfAbsent(sha string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[sha] {
		return false, nil
	}
	f.seen[sha] = true
	return true, nil
}

type fakeSink struct {
	upserts []types.Finding
}

func (f *fakeSink) UpsertFinding(fd types.Finding) (bool, error) {
	f.upserts = append(f.upserts, fd)
	return true, nil
}

func testRule() rules.Rule {
	return rules.Rule{
		Category:   "KEYS",
		Corp:       "acme",
		Keyword:    "KEY",
		Mode:       rules.ModeNormalMatch,
		Extensions: []string{"go"},
		Lines:      1,
	}
}

func newTestSession(api *fakeAPI, dedup *fakeDedup, sink *fakeSink, fl *filter.Filter) *Session {
	if fl == nil {
		fl, _ = filter.New(nil, nil)
	}
	ex := extract.New(extract.NewMailScanner(nil, nil))
	return New(api, dedup, sink, ex, fl, Config{MaxPages: 20, PageTimeout: time.Second})
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name            string
		total, perPage  int
		maxPages, wantN int
	}{
		{"under one page", 50, 100, 20, 1},
		{"capped by result window", 5000, 100, 20, 20},
		{"exact division", 300, 100, 20, 3},
		{"ceiling division", 250, 100, 20, 3},
		{"zero page size falls back to cap", 500, 0, 20, 20},
		{"negative page size falls back to cap", 500, -1, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantN, pageCount(tt.total, tt.perPage, tt.maxPages))
		})
	}
}

func TestCanonicalRepoURL(t *testing.T) {
	got := CanonicalRepoURL("https://github.com/acme/app/blob/main/config.yml")
	assert.Equal(t, "https://github.com/acme/app", got)

	assert.Empty(t, CanonicalRepoURL("https://example.com/acme/app/blob/x"))
	assert.Empty(t, CanonicalRepoURL("https://github.com/acme"))
}

func TestFindingHash(t *testing.T) {
	h1 := FindingHash("https://github.com/acme/app", "acme")
	h2 := FindingHash("https://github.com/acme/app", "acme")
	h3 := FindingHash("https://github.com/acme/app", "other")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 16)
}

func TestRunAcceptsAndDedupsByFindingHash(t *testing.T) {
	api := &fakeAPI{
		perPage:   100,
		total:     2,
		remaining: 30,
		pages: map[int][]types.RawHit{
			1: {
				{URL: "https://github.com/acme/app/blob/a.go", SHA: "s1", Path: "a.go", Repository: "acme/app"},
				{URL: "https://github.com/acme/app/blob/b.go", SHA: "s2", Path: "b.go", Repository: "acme/app"},
			},
		},
		blobs: map[string]string{"s1": "x\nKEY one\ny", "s2": "KEY two"},
	}
	sink := &fakeSink{}
	out := newTestSession(api, &fakeDedup{}, sink, nil).Run(context.Background(), testRule())

	require.True(t, out.Success, out.Message)
	// both hits collapse to one finding per repo/scope
	assert.Equal(t, 1, out.Found)
	assert.Len(t, sink.upserts, 2, "upsert is idempotent, both writes go through")
	assert.Equal(t, "acme", sink.upserts[0].Rule)
	assert.Equal(t, "https://github.com/acme/app", sink.upserts[0].URL)
}

func TestRunSkipsDuplicateBlobs(t *testing.T) {
	api := &fakeAPI{
		perPage:   100,
		total:     1,
		remaining: 30,
		pages: map[int][]types.RawHit{
			1: {{URL: "https://github.com/acme/app/blob/a.go", SHA: "dup", Path: "a.go", Repository: "acme/app"}},
		},
		blobs: map[string]string{"dup": "KEY"},
	}
	dedup := &fakeDedup{seen: map[string]bool{"dup": true}}
	sink := &fakeSink{}
	out := newTestSession(api, dedup, sink, nil).Run(context.Background(), testRule())

	require.True(t, out.Success)
	assert.Zero(t, out.Found)
	assert.Empty(t, sink.upserts)
}

func TestRunPageTimeoutSkipsAndContinues(t *testing.T) {
	api := &fakeAPI{
		perPage:   100,
		total:     250,
		remaining: 30,
		pages: map[int][]types.RawHit{
			1: {{URL: "https://github.com/acme/app/blob/a.go", SHA: "s1", Path: "a.go", Repository: "acme/app"}},
			3: {{URL: "https://github.com/acme/other/blob/b.go", SHA: "s2", Path: "b.go", Repository: "acme/other"}},
		},
		pageErr: map[int]error{2: context.DeadlineExceeded},
		blobs:   map[string]string{"s1": "KEY", "s2": "KEY"},
	}
	sink := &fakeSink{}
	out := newTestSession(api, &fakeDedup{}, sink, nil).Run(context.Background(), testRule())

	require.True(t, out.Success, out.Message)
	assert.Equal(t, 1, out.PagesSkipped)
	assert.Equal(t, 2, out.Found)
}

func TestRunFailsOnQueryError(t *testing.T) {
	api := &fakeAPI{
		perPage:   100,
		remaining: 30,
		pageErr:   map[int]error{1: errors.New("422 validation failed")},
	}
	out := newTestSession(api, &fakeDedup{}, &fakeSink{}, nil).Run(context.Background(), testRule())

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "422")
}

func TestRunFailsOnRateCheckError(t *testing.T) {
	api := &fakeAPI{perPage: 100, rateErr: errors.New("bad credentials")}
	out := newTestSession(api, &fakeDedup{}, &fakeSink{}, nil).Run(context.Background(), testRule())

	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "bad credentials")
}

func TestRunExcludedRepositoryNeverAccepted(t *testing.T) {
	fl, err := filter.New([]string{"acme/app/**"}, nil)
	require.NoError(t, err)

	api := &fakeAPI{
		perPage:   100,
		total:     1,
		remaining: 30,
		pages: map[int][]types.RawHit{
			1: {{URL: "https://github.com/acme/app/blob/a.go", SHA: "s1", Path: "a.go", Repository: "acme/app"}},
		},
		blobs: map[string]string{"s1": "KEY"},
	}
	sink := &fakeSink{}
	out := newTestSession(api, &fakeDedup{}, sink, fl).Run(context.Background(), testRule())

	require.True(t, out.Success)
	assert.Zero(t, out.Found)
	assert.Empty(t, sink.upserts)
}

func TestRunUnusableHitURLSkipped(t *testing.T) {
	api := &fakeAPI{
		perPage:   100,
		total:     1,
		remaining: 30,
		pages: map[int][]types.RawHit{
			1: {{URL: "https://gitlab.com/acme/app/blob/a.go", SHA: "s1", Path: "a.go", Repository: "acme/app"}},
		},
		blobs: map[string]string{"s1": "KEY"},
	}
	sink := &fakeSink{}
	out := newTestSession(api, &fakeDedup{}, sink, nil).Run(context.Background(), testRule())

	require.True(t, out.Success)
	assert.Zero(t, out.Found)
}
