// Package filter implements the false-positive suppression applied to hits
// that survive dedup: well-known noisy repositories/paths are matched with
// glob patterns, extracted text with regular expressions.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Filter holds the compiled exclusion patterns for one engine run.
type Filter struct {
	repoGlobs []string
	content   []*regexp.Regexp
}

// New compiles the configured exclusion patterns. Repository patterns are
// doublestar globs matched against the lower-cased "repo/path" string;
// content patterns are regular expressions matched against the joined match
// text. A malformed pattern is a configuration error.
func New(repoPatterns, contentPatterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range repoPatterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid repository exclude pattern %q", p)
		}
		f.repoGlobs = append(f.repoGlobs, p)
	}
	for _, p := range contentPatterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid content exclude pattern %q: %w", p, err)
		}
		f.content = append(f.content, re)
	}
	return f, nil
}

// ExcludedRepository reports whether the repository/path pair matches any
// configured repository pattern.
func (f *Filter) ExcludedRepository(repository, path string) bool {
	full := strings.ToLower(repository + "/" + path)
	for _, g := range f.repoGlobs {
		if ok, _ := doublestar.Match(g, full); ok {
			return true
		}
	}
	return false
}

// ExcludedContent reports whether the joined match text matches any
// configured content pattern.
func (f *Filter) ExcludedContent(matches []string) bool {
	if len(f.content) == 0 {
		return false
	}
	joined := strings.Join(matches, "\n")
	for _, re := range f.content {
		if re.MatchString(joined) {
			return true
		}
	}
	return false
}
