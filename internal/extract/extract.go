// Package extract turns raw file content into the reviewer-ready line
// sequence a rule asks for: a context window around keyword hits, the whole
// file, or probed mail records.
package extract

import (
	"context"
	"strings"

	"github.com/leakwatch/leakwatch/internal/rules"
)

// Extractor applies a rule's match mode to decoded file content. Mail-mode
// rules delegate to the mail scanner, which is the only part of the engine
// performing network I/O beyond the search API.
type Extractor struct {
	mail *MailScanner
}

// New returns an Extractor using the given mail scanner for mail-mode rules.
func New(mail *MailScanner) *Extractor {
	return &Extractor{mail: mail}
}

// Extract returns the extracted lines for the rule, or an empty slice when
// nothing matched. The caller still applies exclusion filtering.
func (e *Extractor) Extract(ctx context.Context, content string, r rules.Rule) []string {
	// Upstream content may embed this HTML fragment artifact.
	content = strings.ReplaceAll(content, "<img", "")
	lines := splitLines(content)

	switch r.Mode {
	case rules.ModeMail:
		return e.mail.Scan(ctx, content)
	case rules.ModeOnlyMatch:
		return lines
	default:
		return contextWindows(lines, r.Keywords(), r.Lines)
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// contextWindows collects, for every line containing any keyword token, up to
// n non-blank lines before and after the hit plus the hit line itself. Blank
// lines are skipped without consuming window slots, and no line index is ever
// emitted twice; output order follows first encounter, ascending within each
// window.
func contextWindows(lines []string, keywords []string, n int) []string {
	seen := make(map[int]bool)
	var out []string
	emit := func(idx int) {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, lines[idx])
		}
	}

	for idx, line := range lines {
		if !containsAny(line, keywords) {
			continue
		}
		// up to n non-blank lines before, nearest last
		var before []int
		for i := idx - 1; i >= 0 && len(before) < n; i-- {
			if strings.TrimSpace(lines[i]) == "" {
				continue
			}
			before = append(before, i)
		}
		for i := len(before) - 1; i >= 0; i-- {
			emit(before[i])
		}
		emit(idx)
		count := 0
		for i := idx + 1; i < len(lines) && count < n; i++ {
			if strings.TrimSpace(lines[i]) == "" {
				continue
			}
			emit(i)
			count++
		}
	}
	return out
}

func containsAny(line string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(line, k) {
			return true
		}
	}
	return false
}
