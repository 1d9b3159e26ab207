package testutils

import (
	"context"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

// MockVectorDriver is a test vector driver that returns preset query
// results and records what it was asked.
type MockVectorDriver struct {
	Documents []vector.Document

	// Results is returned by Query, truncated to topK.
	Results []vector.QueryResult

	// QueryErr is returned by Query when set.
	QueryErr error

	LastTopK   int
	Deleted    []string
	ResetCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make([]vector.Document, 0),
		Results:   make([]vector.QueryResult, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.Documents = append(m.Documents, docs...)
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	m.LastTopK = topK
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	if len(m.Results) < topK {
		return m.Results, nil
	}
	return m.Results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []vector.Document
	for _, d := range m.Documents {
		if _, ok := want[d.ID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.Deleted = append(m.Deleted, ids...)
	return nil
}

func (m *MockVectorDriver) Reset(_ context.Context) error {
	m.ResetCalls++
	m.Documents = m.Documents[:0]
	return nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Documents), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Hit builds a query result for tests.
func Hit(id, text, title, label, source string, distance float32) vector.QueryResult {
	return vector.QueryResult{
		Document: vector.Document{
			ID:   id,
			Text: text,
			Metadata: vector.Metadata{
				Title:  title,
				Label:  label,
				Source: source,
			},
		},
		Distance: distance,
	}
}
