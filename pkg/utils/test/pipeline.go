package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/knowledge"
	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/pipeline"
	"github.com/papercomputeco/aletheia/pkg/retriever"
	storagemem "github.com/papercomputeco/aletheia/pkg/storage/inmemory"
	"github.com/papercomputeco/aletheia/pkg/vector"
	vectormem "github.com/papercomputeco/aletheia/pkg/vector/inmemory"
)

// MockExtractor is a test page extractor.
type MockExtractor struct {
	Text string
	Fail bool
	URLs []string
}

func (m *MockExtractor) ExtractText(_ context.Context, url string) (string, error) {
	m.URLs = append(m.URLs, url)
	if m.Fail {
		return "", errors.New("mock extraction failure")
	}
	return m.Text, nil
}

// PipelineFixture is a pipeline over in-memory stores and mock backends.
type PipelineFixture struct {
	Pipeline  *pipeline.Pipeline
	Store     *knowledge.Store
	Embedder  *MockEmbedder
	Chat      *MockChat
	Web       *MockSearcher
	Extractor *MockExtractor
	History   *storagemem.Driver
}

// SeedDocuments are indexed by NewPipelineFixture.
var SeedDocuments = []struct {
	ID   string
	Text string
	Meta vector.Metadata
}{
	{"doc-0", "O Banco Central reduziu a taxa de juros.", vector.Metadata{Title: "Copom", Label: "VERDADEIRA", Source: "https://bcb.gov.br"}},
	{"doc-1", "Vacina altera o DNA humano.", vector.Metadata{Title: "Boato vacina", Label: "FALSA", Source: "https://lupa.news"}},
}

// NewPipelineFixture builds a seeded pipeline whose model answers reply.
func NewPipelineFixture(reply string) (*PipelineFixture, error) {
	f := &PipelineFixture{
		Embedder:  NewMockEmbedder(),
		Chat:      NewMockChat(reply),
		Web:       &MockSearcher{},
		Extractor: &MockExtractor{},
		History:   storagemem.NewDriver(),
	}

	store, err := knowledge.NewStore(knowledge.Config{
		Driver:   vectormem.NewDriver(),
		Embedder: f.Embedder,
		Logger:   logger.Nop(),
	})
	if err != nil {
		return nil, err
	}
	f.Store = store

	texts := make([]string, 0, len(SeedDocuments))
	metas := make([]vector.Metadata, 0, len(SeedDocuments))
	ids := make([]string, 0, len(SeedDocuments))
	for _, d := range SeedDocuments {
		texts = append(texts, d.Text)
		metas = append(metas, d.Meta)
		ids = append(ids, d.ID)
	}
	if err := store.AddDocuments(context.Background(), texts, metas, ids); err != nil {
		return nil, err
	}

	retr := retriever.New(store, retriever.Config{}, logger.Nop())
	cls, err := classifier.New(classifier.Config{
		Retriever: retr,
		Chat:      f.Chat,
		Web:       f.Web,
		Logger:    logger.Nop(),
	})
	if err != nil {
		return nil, err
	}

	f.Pipeline, err = pipeline.New(pipeline.Config{
		Store:         store,
		Retriever:     retr,
		Classifier:    cls,
		Extractor:     f.Extractor,
		History:       f.History,
		Model:         "mock",
		MaxWebResults: 5,
		Logger:        logger.Nop(),
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
