package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leakwatch/leakwatch/internal/rules"
)

func newTestExtractor(prober TitleProber) *Extractor {
	return New(NewMailScanner([]string{"gmail.com"}, prober))
}

func TestContextWindowSkipsBlanks(t *testing.T) {
	content := strings.Join([]string{"a", "KEY", "b", "", "c"}, "\n")
	r := rules.Rule{Keyword: "KEY", Mode: rules.ModeNormalMatch, Lines: 2}

	got := newTestExtractor(nil).Extract(context.Background(), content, r)
	assert.Equal(t, []string{"a", "KEY", "b", "c"}, got)
}

func TestContextWindowOverlappingHits(t *testing.T) {
	content := strings.Join([]string{"one", "KEY first", "two", "KEY second", "three"}, "\n")
	r := rules.Rule{Keyword: "KEY", Mode: rules.ModeNormalMatch, Lines: 2}

	got := newTestExtractor(nil).Extract(context.Background(), content, r)
	// every index exactly once, order preserved
	assert.Equal(t, []string{"one", "KEY first", "two", "KEY second", "three"}, got)
}

func TestContextWindowNoHit(t *testing.T) {
	r := rules.Rule{Keyword: "missing", Mode: rules.ModeNormalMatch, Lines: 2}
	got := newTestExtractor(nil).Extract(context.Background(), "a\nb\nc", r)
	assert.Empty(t, got)
}

func TestOrTokensMatchAnyLine(t *testing.T) {
	content := "has password here\nnothing\nhas secret here"
	r := rules.Rule{Keyword: "password secret", Mode: rules.ModeNormalMatch, Lines: 0}
	r.Lines = 0 // no context, hit lines only

	got := newTestExtractor(nil).Extract(context.Background(), content, r)
	assert.Equal(t, []string{"has password here", "has secret here"}, got)
}

func TestOnlyMatchReturnsAllLines(t *testing.T) {
	r := rules.Rule{Keyword: "x", Mode: rules.ModeOnlyMatch}
	got := newTestExtractor(nil).Extract(context.Background(), "a\nb", r)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestImgArtifactStripped(t *testing.T) {
	r := rules.Rule{Keyword: "KEY", Mode: rules.ModeNormalMatch, Lines: 1}
	got := newTestExtractor(nil).Extract(context.Background(), "<imgKEY line", r)
	assert.Equal(t, []string{"KEY line"}, got)
}

func TestParseTitle(t *testing.T) {
	title := ParseTitle(strings.NewReader("<html><head><title> Acme Portal </title></head></html>"))
	assert.Equal(t, "Acme Portal", title)

	assert.Equal(t, TitleUnknown, ParseTitle(strings.NewReader("<html><body>no title</body></html>")))
	assert.Equal(t, TitleUnknown, ParseTitle(strings.NewReader("not html at all")))

	long := "<title>" + strings.Repeat("x", 300) + "</title>"
	assert.Len(t, ParseTitle(strings.NewReader(long)), 150)
}
