package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/config"
	embeddingutils "github.com/papercomputeco/aletheia/pkg/embeddings/utils"
	"github.com/papercomputeco/aletheia/pkg/eventstream"
	"github.com/papercomputeco/aletheia/pkg/eventstream/kafka"
	"github.com/papercomputeco/aletheia/pkg/eventstream/nop"
	"github.com/papercomputeco/aletheia/pkg/knowledge"
	"github.com/papercomputeco/aletheia/pkg/llm/ollama"
	"github.com/papercomputeco/aletheia/pkg/retriever"
	"github.com/papercomputeco/aletheia/pkg/scrape"
	"github.com/papercomputeco/aletheia/pkg/storage"
	"github.com/papercomputeco/aletheia/pkg/storage/inmemory"
	"github.com/papercomputeco/aletheia/pkg/storage/postgres"
	"github.com/papercomputeco/aletheia/pkg/storage/sqlite"
	vectorutils "github.com/papercomputeco/aletheia/pkg/vector/utils"
	"github.com/papercomputeco/aletheia/pkg/websearch"
)

// HistoryFile is the sqlite history created in the persist dir when no
// explicit path is configured.
const HistoryFile = "history.sqlite"

// NewStore builds the evidence store alone, for commands that never ask the
// model (ingest, search, status).
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*knowledge.Store, error) {
	target := cfg.Embedding.Target
	if target == "" {
		target = cfg.Ollama.Host
	}
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType:   cfg.VectorStore.Provider,
		TargetURL:      cfg.VectorStore.Target,
		PersistDir:     cfg.VectorStore.PersistDir,
		CollectionName: cfg.VectorStore.Collection,
		Dimensions:     cfg.Embedding.Dimensions,
		APIKey:         cfg.VectorStore.APIKey,
		Logger:         logger,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	return knowledge.NewStore(knowledge.Config{
		Driver:   driver,
		Embedder: embedder,
		Logger:   logger,
	})
}

// FromConfig builds the full pipeline described by cfg.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	retr := retriever.New(store, retriever.Config{
		TopK:            cfg.Retrieval.TopK,
		SnippetMaxChars: cfg.Retrieval.SnippetMaxChars,
		ContextMaxChars: cfg.Retrieval.ContextMaxChars,
	}, logger)

	if cfg.LLM.Provider != "" && cfg.LLM.Provider != "ollama" {
		return nil, closeOnError(fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider), store)
	}
	temperature := cfg.LLM.Temperature
	chat, err := ollama.New(ollama.Config{
		BaseURL:     cfg.Ollama.Host,
		Model:       cfg.LLM.Model,
		Temperature: &temperature,
		Logger:      logger,
	})
	if err != nil {
		return nil, closeOnError(fmt.Errorf("creating chat client: %w", err), store)
	}

	var web websearch.Searcher
	if cfg.Web.Enabled {
		web = websearch.NewDuckDuckGo(websearch.DuckDuckGoConfig{
			Endpoint: cfg.Web.Endpoint,
			Logger:   logger,
		})
	}

	cls, err := classifier.New(classifier.Config{
		Retriever: retr,
		Chat:      chat,
		Web:       web,
		Logger:    logger,
	})
	if err != nil {
		return nil, closeOnError(err, store)
	}

	history, err := NewHistory(ctx, cfg)
	if err != nil {
		return nil, closeOnError(err, store)
	}

	publisher, err := NewPublisher(cfg, logger)
	if err != nil {
		return nil, closeOnError(err, store, history)
	}

	p, err := New(Config{
		Store:         store,
		Retriever:     retr,
		Classifier:    cls,
		Extractor:     scrape.New(0, 0),
		History:       history,
		Publisher:     publisher,
		Model:         chat.Model(),
		WebEnabled:    cfg.Web.Enabled,
		MaxWebResults: cfg.Web.MaxResults,
		Logger:        logger,
	})
	if err != nil {
		return nil, closeOnError(err, store, history, publisher)
	}
	return p, nil
}

// closeOnError releases the given resources when err is set. Nil resources
// are skipped and close failures are joined onto err.
func closeOnError(err error, resources ...io.Closer) error {
	if err == nil {
		return nil
	}
	errs := []error{err}
	for _, r := range resources {
		if r == nil {
			continue
		}
		if cerr := r.Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	return errors.Join(errs...)
}

// NewHistory opens the configured verdict history. "none" yields nil.
func NewHistory(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	switch cfg.History.Provider {
	case "none":
		return nil, nil

	case "memory":
		return inmemory.NewDriver(), nil

	case "", "sqlite":
		path := cfg.History.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.VectorStore.PersistDir, HistoryFile)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
		d, err := sqlite.NewSQLiteDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite history: %w", err)
		}
		return d, nil

	case "postgres":
		if cfg.History.PostgresDSN == "" {
			return nil, errors.New("history.postgres_dsn is required for the postgres history")
		}
		d, err := postgres.NewDriver(ctx, cfg.History.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres history: %w", err)
		}
		return d, nil

	default:
		return nil, fmt.Errorf("unsupported history provider: %s", cfg.History.Provider)
	}
}

// NewPublisher opens the configured verdict event stream. "none" yields nil.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", "none":
		return nil, nil

	case "nop":
		return nop.NewPublisher(logger), nil

	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Events.Provider)
	}
}
