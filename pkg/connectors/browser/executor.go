// Package browser implements the browser connector over plain HTTP
// fetching and document parsing.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Executor handles the browser connector's actions: navigate,
// get_text_from_element, and get_links_on_page.
type Executor struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewExecutor builds a browser executor over the given fetcher.
func NewExecutor(fetcher *Fetcher, logger *slog.Logger) *Executor {
	return &Executor{
		fetcher: fetcher,
		logger:  logger.With("module", "connectors.browser"),
	}
}

// Execute dispatches one browser action. Unknown action types are
// rejected here, per the open action contract.
func (e *Executor) Execute(ctx context.Context, actionType string, params map[string]any) (string, error) {
	switch actionType {
	case "navigate":
		return e.navigate(ctx, params)
	case "get_text_from_element":
		return e.getTextFromElement(ctx, params)
	case "get_links_on_page":
		return e.getLinksOnPage(ctx, params)
	default:
		return "", fmt.Errorf("browser connector does not support action %q", actionType)
	}
}

func (e *Executor) navigate(ctx context.Context, params map[string]any) (string, error) {
	pageURL, err := stringParam(params, "url")
	if err != nil {
		return "", err
	}

	doc, status, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "(untitled)"
	}

	e.logger.InfoContext(ctx, "Navigated", "url", pageURL, "status", status, "title", title)

	return fmt.Sprintf("Navigated to %s (HTTP %d): %s", pageURL, status, title), nil
}

func (e *Executor) getTextFromElement(ctx context.Context, params map[string]any) (string, error) {
	pageURL, err := stringParam(params, "url")
	if err != nil {
		return "", err
	}

	selector, err := stringParam(params, "selector")
	if err != nil {
		return "", err
	}

	doc, _, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	selection := doc.Find(selector).First()
	if selection.Length() == 0 {
		return "", fmt.Errorf("no element matches selector %q on %s", selector, pageURL)
	}

	return strings.TrimSpace(selection.Text()), nil
}

func (e *Executor) getLinksOnPage(ctx context.Context, params map[string]any) (string, error) {
	pageURL, err := stringParam(params, "url")
	if err != nil {
		return "", err
	}

	base, err := ParseAbsoluteURL(pageURL)
	if err != nil {
		return "", err
	}

	doc, _, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		seen[resolved.String()] = true
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}

	sort.Strings(links)

	if len(links) == 0 {
		return "No links found on " + pageURL, nil
	}

	return strings.Join(links, "\n"), nil
}

func stringParam(params map[string]any, key string) (string, error) {
	value, _ := params[key].(string)

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("param %q is required", key)
	}

	return value, nil
}
