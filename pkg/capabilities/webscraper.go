package capabilities

import (
	"context"
	"fmt"
	"strings"

	"github.com/mordomohq/mordomo/pkg/connectors/browser"
	"github.com/mordomohq/mordomo/pkg/protocol"
)

// WebScraper exposes page fetching and element extraction as condition
// evaluation tools, reusing the browser connector's fetcher.
type WebScraper struct {
	fetcher *browser.Fetcher
}

// NewWebScraper builds the web_scraper provider.
func NewWebScraper(fetcher *browser.Fetcher) *WebScraper {
	return &WebScraper{fetcher: fetcher}
}

func (w *WebScraper) ID() string {
	return "web_scraper"
}

func (w *WebScraper) Description() string {
	return "Fetches web pages and extracts text from them."
}

func (w *WebScraper) Tools() []protocol.ToolInfo {
	return []protocol.ToolInfo{
		{
			Name:        "fetch_page",
			Description: "Fetch a web page and return its visible text.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Absolute http or https URL of the page.",
					},
				},
				"required": []any{"url"},
			},
		},
		{
			Name:        "extract_text",
			Description: "Fetch a web page and return the text of the first element matching a CSS selector.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "Absolute http or https URL of the page.",
					},
					"selector": map[string]any{
						"type":        "string",
						"description": "CSS selector of the element to read.",
					},
				},
				"required": []any{"url", "selector"},
			},
		},
	}
}

func (w *WebScraper) Call(ctx context.Context, tool string, args map[string]any) (string, error) {
	pageURL, _ := args["url"].(string)
	if strings.TrimSpace(pageURL) == "" {
		return "", fmt.Errorf("tool %q requires a url argument", tool)
	}

	switch tool {
	case "fetch_page":
		doc, _, err := w.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return "", err
		}

		return condense(doc.Find("body").Text()), nil
	case "extract_text":
		selector, _ := args["selector"].(string)
		if strings.TrimSpace(selector) == "" {
			return "", fmt.Errorf("tool %q requires a selector argument", tool)
		}

		doc, _, err := w.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return "", err
		}

		selection := doc.Find(selector).First()
		if selection.Length() == 0 {
			return "", fmt.Errorf("no element matches selector %q on %s", selector, pageURL)
		}

		return condense(selection.Text()), nil
	default:
		return "", fmt.Errorf("web_scraper has no tool %q", tool)
	}
}

// condense collapses runs of whitespace so scraped text stays readable in
// a prompt.
func condense(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
