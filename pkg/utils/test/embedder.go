package testutils

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMockEmbedding is returned for texts with no entry in
// MockEmbedder.Embeddings.
var DefaultMockEmbedding = []float32{0.1, 0.2, 0.3}

// MockEmbedder looks embeddings up by exact text.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn makes Embed fail for exactly this text.
	FailOn string

	// Calls counts Embed invocations.
	Calls int

	mu sync.Mutex
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Embeddings: make(map[string][]float32)}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedder refused %q", text)
	}
	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}
	return DefaultMockEmbedding, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
