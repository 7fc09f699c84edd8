package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxTitleLen   = 150
	maxProbeBytes = 256 << 10
)

// HTTPProber fetches mail-host pages with a short timeout and extracts the
// page title. All failures degrade to marker strings.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns a prober with the given request timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

// Title implements TitleProber.
func (p *HTTPProber) Title(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("<%s>", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Sprintf("<%s>", err)
	}
	defer resp.Body.Close()
	return ParseTitle(io.LimitReader(resp.Body, maxProbeBytes))
}

// ParseTitle extracts the first <title> text from an HTML stream, trimmed and
// capped at 150 characters. Malformed HTML or a missing title yields the
// unknown marker.
func ParseTitle(r io.Reader) string {
	z := html.NewTokenizer(r)
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return TitleUnknown
		case html.StartTagToken:
			name, _ := z.TagName()
			if strings.EqualFold(string(name), "title") {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				title := strings.TrimSpace(string(z.Text()))
				if title == "" {
					continue
				}
				if len(title) > maxTitleLen {
					title = title[:maxTitleLen]
				}
				return title
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if strings.EqualFold(string(name), "title") {
				inTitle = false
			}
		}
	}
}
