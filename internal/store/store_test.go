package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leakwatch/leakwatch/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertIfAbsent(t *testing.T) {
	s := openTestStore(t)

	inserted, err := s.InsertIfAbsent("abc123")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.InsertIfAbsent("abc123")
	require.NoError(t, err)
	assert.False(t, inserted, "second insert must report already present")

	ok, err := s.Exists("abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists("never-seen")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertFindingIdempotent(t *testing.T) {
	s := openTestStore(t)

	f := types.Finding{
		Hash:    "h1",
		URL:     "https://github.com/acme/app",
		Rule:    "acme",
		Keyword: "acme.com password",
		Matches: []string{"line one", "line two"},
	}
	written, err := s.UpsertFinding(f)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = s.UpsertFinding(f)
	require.NoError(t, err)
	assert.False(t, written)

	counts, err := s.CountByRule()
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "acme", counts[0].Rule)
	assert.Equal(t, 1, counts[0].Count)
}

func TestConcurrentInsertExactlyOnce(t *testing.T) {
	s := openTestStore(t)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := s.InsertIfAbsent("contended")
			if err != nil {
				t.Error(err)
				return
			}
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for r := range results {
		if r {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent insert must win")
}

func TestCountByRuleOrdering(t *testing.T) {
	s := openTestStore(t)

	for i, rule := range []string{"a", "b", "b"} {
		_, err := s.UpsertFinding(types.Finding{
			Hash: string(rune('x' + i)), URL: "u", Rule: rule, Keyword: "k",
		})
		require.NoError(t, err)
	}
	counts, err := s.CountByRule()
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "b", counts[0].Rule)
	assert.Equal(t, 2, counts[0].Count)
}
