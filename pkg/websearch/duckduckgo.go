package websearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	// DefaultEndpoint is DuckDuckGo's script-free results page.
	DefaultEndpoint = "https://html.duckduckgo.com/html/"

	DefaultMaxResults = 5

	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) aletheia"
)

// DuckDuckGo scrapes the HTML results page.
type DuckDuckGo struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// DuckDuckGoConfig configures the DuckDuckGo searcher.
type DuckDuckGoConfig struct {
	// Endpoint defaults to DefaultEndpoint.
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewDuckDuckGo creates a DuckDuckGo searcher.
func NewDuckDuckGo(c DuckDuckGoConfig) *DuckDuckGo {
	d := &DuckDuckGo{
		endpoint:   c.Endpoint,
		userAgent:  c.UserAgent,
		httpClient: &http.Client{Timeout: c.Timeout},
		logger:     c.Logger,
	}
	if d.endpoint == "" {
		d.endpoint = DefaultEndpoint
	}
	if d.userAgent == "" {
		d.userAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		d.httpClient.Timeout = defaultTimeout
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Search returns up to maxResults hits. Hits without a title or a URL are
// dropped.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %w", ErrSearch, d.endpoint, err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrSearch, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: duckduckgo returned status %d: %s", ErrSearch, resp.StatusCode, string(body))
	}

	results, err := parseResults(resp.Body, maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing results: %w", ErrSearch, err)
	}

	d.logger.Debug("web search completed",
		"query_chars", len(query),
		"results", len(results),
	)

	return results, nil
}

// parseResults walks the results page in document order: every
// a.result__a opens a hit and the next .result__snippet fills its snippet.
func parseResults(r io.Reader, maxResults int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var raw []Result
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				raw = append(raw, Result{
					Title: nodeText(n),
					URL:   resolveHref(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet"):
				if len(raw) > 0 && raw[len(raw)-1].Snippet == "" {
					raw[len(raw)-1].Snippet = nodeText(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	results := make([]Result, 0, maxResults)
	for _, res := range raw {
		res.Title = strings.TrimSpace(res.Title)
		res.URL = strings.TrimSpace(res.URL)
		res.Snippet = strings.TrimSpace(res.Snippet)
		if res.Title == "" || res.URL == "" || isAd(res.URL) {
			continue
		}
		results = append(results, res)
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}

// resolveHref unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveHref(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func isAd(link string) bool {
	return strings.Contains(link, "duckduckgo.com/y.js")
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatenates the text below n with whitespace collapsed.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
