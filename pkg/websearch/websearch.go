// Package websearch fetches live web evidence from DuckDuckGo's HTML
// endpoint and formats it as a context block.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSearch marks a failed call to the search backend.
var ErrSearch = errors.New("web search error")

// Result is one web hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// NoEvidence is the block used when the search returned nothing.
const NoEvidence = "Nenhuma evidência encontrada via DuckDuckGo.\n"

// Format renders results as a numbered [Wn] block list.
func Format(results []Result) string {
	if len(results) == 0 {
		return NoEvidence
	}

	out := []string{"Resultados da web (DuckDuckGo):"}
	for i, r := range results {
		out = append(out, fmt.Sprintf("[W%d] %s\nURL: %s\nTrecho: %s\n", i+1, r.Title, r.URL, r.Snippet))
	}
	return strings.Join(out, "\n")
}
