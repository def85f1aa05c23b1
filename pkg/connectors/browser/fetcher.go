package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a page is read, so a streaming or
	// hostile endpoint cannot exhaust memory.
	maxBodyBytes = 5 << 20
)

// Fetcher retrieves and parses web pages. It is shared between the
// browser connector and the web scraper capability.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the given request timeout. A
// non-positive timeout falls back to the default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch GETs pageURL and returns the parsed document plus the response
// status code. Only absolute http and https URLs are accepted.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*goquery.Document, int, error) {
	parsed, err := ParseAbsoluteURL(pageURL)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request for %s: %w", pageURL, err)
	}

	req.Header.Set("User-Agent", "mordomo-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, resp.StatusCode, nil
}

// ParseAbsoluteURL validates that raw is a syntactically valid absolute
// http or https URL.
func ParseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("url %q must be absolute http or https", raw)
	}

	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}

	return parsed, nil
}
