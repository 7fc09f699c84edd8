package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	mailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	hostPattern = regexp.MustCompile(`@([a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+)`)
	ipv4Pattern = regexp.MustCompile(`^((2(5[0-5]|[0-4]\d))|[0-1]?\d{1,2})(\.((2(5[0-5]|[0-4]\d))|[0-1]?\d{1,2})){3}$`)
)

const (
	// TitleInnerIP marks mail hosts that are dotted-quad addresses; those
	// are never probed.
	TitleInnerIP = "<Inner IP>"
	// TitleUnknown is the fallback when a probed page has no parseable title.
	TitleUnknown = "<Unknown>"
)

// TitleProber fetches the page title for a mail host URL. Failures degrade to
// a marker string, never an error.
type TitleProber interface {
	Title(ctx context.Context, url string) string
}

// MailScanner extracts e-mail addresses from file content and validates their
// domains via an HTTP title probe.
type MailScanner struct {
	ignoreHosts map[string]bool
	prober      TitleProber
}

// NewMailScanner returns a scanner skipping the given hosts. prober may not
// be nil.
func NewMailScanner(ignoreHosts []string, prober TitleProber) *MailScanner {
	ign := make(map[string]bool, len(ignoreHosts))
	for _, h := range ignoreHosts {
		ign[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &MailScanner{ignoreHosts: ign, prober: prober}
}

// Scan returns one "<mail> <probed-url> <title-or-marker>" line per unique
// mail found in content. Uniqueness is case-insensitive and first occurrence
// wins.
func (m *MailScanner) Scan(ctx context.Context, content string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range mailPattern.FindAllString(content, -1) {
		mail := strings.ToLower(strings.TrimSpace(raw))
		if seen[mail] {
			continue
		}
		hm := hostPattern.FindStringSubmatch(mail)
		if hm == nil {
			continue
		}
		host := strings.TrimSpace(hm[1])
		if m.ignoreHosts[host] {
			continue
		}
		seen[mail] = true

		var url, title string
		if ipv4Pattern.MatchString(host) {
			url = "http://" + host
			title = TitleInnerIP
		} else {
			url = ProbeURL(host)
			title = m.prober.Title(ctx, url)
		}
		out = append(out, fmt.Sprintf("%s %s %s", mail, url, title))
	}
	return out
}

// ProbeURL builds the probe target for a mail host. When the host already
// equals its registrable domain the www prefix is added, since the bare apex
// often does not serve a page.
func ProbeURL(host string) string {
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil && etld == host {
		return "http://www." + host
	}
	return "http://" + host
}
