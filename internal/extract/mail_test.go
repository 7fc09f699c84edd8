package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	calls  []string
	titles map[string]string
}

func (f *fakeProber) Title(_ context.Context, url string) string {
	f.calls = append(f.calls, url)
	if t, ok := f.titles[url]; ok {
		return t
	}
	return TitleUnknown
}

func TestMailScanInnerIPNeverProbed(t *testing.T) {
	p := &fakeProber{}
	m := NewMailScanner(nil, p)

	got := m.Scan(context.Background(), "contact admin@10.0.0.5 for access")
	require.Len(t, got, 1)
	assert.Equal(t, "admin@10.0.0.5 http://10.0.0.5 "+TitleInnerIP, got[0])
	assert.Empty(t, p.calls)
}

func TestMailScanDuplicateFirstOccurrenceWins(t *testing.T) {
	p := &fakeProber{titles: map[string]string{"http://www.acme.com": "Acme"}}
	m := NewMailScanner(nil, p)

	got := m.Scan(context.Background(), "a@acme.com then A@ACME.COM again a@acme.com")
	require.Len(t, got, 1)
	assert.Equal(t, "a@acme.com http://www.acme.com Acme", got[0])
	assert.Len(t, p.calls, 1)
}

func TestMailScanIgnoresConfiguredHosts(t *testing.T) {
	p := &fakeProber{}
	m := NewMailScanner([]string{"gmail.com"}, p)

	got := m.Scan(context.Background(), "me@gmail.com plus ops@corp.example")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "ops@corp.example")
}

func TestMailScanMultipleUnique(t *testing.T) {
	p := &fakeProber{}
	m := NewMailScanner(nil, p)

	got := m.Scan(context.Background(), "x@a-corp.com y@b-corp.org")
	assert.Len(t, got, 2)
	assert.Len(t, p.calls, 2)
}

func TestProbeURL(t *testing.T) {
	// registrable domain gets the www prefix
	assert.Equal(t, "http://www.acme.com", ProbeURL("acme.com"))
	// subdomains are probed as-is
	assert.Equal(t, "http://mail.acme.com", ProbeURL("mail.acme.com"))
}
