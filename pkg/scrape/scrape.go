// Package scrape extracts the readable paragraph text of a news page so a
// URL can be checked like a typed claim.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultMaxChars = 8000
	DefaultTimeout  = 20 * time.Second
)

// ErrNoText is returned when a page has no paragraph text.
var ErrNoText = errors.New("no useful text could be extracted from the page")

// Extractor fetches pages and keeps their <p> text.
type Extractor struct {
	httpClient *http.Client
	maxChars   int
}

// New creates an Extractor. Zero values take the defaults.
func New(timeout time.Duration, maxChars int) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout},
		maxChars:   maxChars,
	}
}

// ExtractText downloads url and joins the text of every <p> element with
// newlines, truncated to the configured number of characters.
func (e *Extractor) ExtractText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) aletheia")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	paragraphs, err := paragraphs(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", url, err)
	}

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if text == "" {
		return "", ErrNoText
	}

	if runes := []rune(text); len(runes) > e.maxChars {
		text = string(runes[:e.maxChars])
	}
	return text, nil
}

// paragraphs returns the whitespace-normalised text of each <p>, skipping
// script and style content.
func paragraphs(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			var sb strings.Builder
			collectText(n, &sb)
			if t := strings.Join(strings.Fields(sb.String()), " "); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
