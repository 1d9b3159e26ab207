package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/aletheia/pkg/websearch"
)

// MockSearcher is a test web searcher with canned results.
type MockSearcher struct {
	Results []websearch.Result

	// Fail causes Search to return an error.
	Fail bool

	Queries    []string
	MaxResults []int
}

func (m *MockSearcher) Search(_ context.Context, query string, maxResults int) ([]websearch.Result, error) {
	m.Queries = append(m.Queries, query)
	m.MaxResults = append(m.MaxResults, maxResults)
	if m.Fail {
		return nil, errors.New("mock search failure")
	}
	if maxResults > 0 && len(m.Results) > maxResults {
		return m.Results[:maxResults], nil
	}
	return m.Results, nil
}
