package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent aletheia configuration stored as
// config.toml in the .aletheia/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Ollama      OllamaConfig      `toml:"ollama"`
	LLM         LLMConfig         `toml:"llm"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Web         WebConfig         `toml:"web"`
	API         APIConfig         `toml:"api"`
	History     HistoryConfig     `toml:"history"`
	Events      EventsConfig      `toml:"events"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// OllamaConfig holds the address of the Ollama server shared by the chat
// and embedding clients.
type OllamaConfig struct {
	Host string `toml:"host,omitempty"`
}

// LLMConfig holds chat model settings.
type LLMConfig struct {
	Provider    string  `toml:"provider,omitempty"`
	Model       string  `toml:"model,omitempty"`
	Temperature float64 `toml:"temperature"`
}

// EmbeddingConfig holds embedding provider settings. An empty Target falls
// back to ollama.host.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// VectorStoreConfig holds evidence store settings.
type VectorStoreConfig struct {
	// Provider is one of sqlite, chroma, qdrant or memory.
	Provider string `toml:"provider,omitempty"`

	// Target is the server address for chroma (URL) and qdrant (host:port).
	Target string `toml:"target,omitempty"`

	// PersistDir holds the sqlite vector file.
	PersistDir string `toml:"persist_dir,omitempty"`

	Collection string `toml:"collection,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
}

// RetrievalConfig bounds the context handed to the model.
type RetrievalConfig struct {
	TopK            int `toml:"top_k,omitempty"`
	SnippetMaxChars int `toml:"snippet_max_chars,omitempty"`
	ContextMaxChars int `toml:"context_max_chars,omitempty"`
}

// WebConfig holds live web search settings.
type WebConfig struct {
	Enabled    bool   `toml:"enabled"`
	MaxResults int    `toml:"max_results,omitempty"`
	Endpoint   string `toml:"endpoint,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen      string `toml:"listen,omitempty"`
	CORSOrigins string `toml:"cors_origins,omitempty"`
}

// HistoryConfig selects where verdicts are recorded.
type HistoryConfig struct {
	// Provider is one of none, memory, sqlite or postgres.
	Provider string `toml:"provider,omitempty"`

	// SQLitePath defaults to history.sqlite inside vector_store.persist_dir.
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventsConfig selects where verdict events are published.
type EventsConfig struct {
	// Provider is none, nop or kafka.
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// IngestConfig holds seed ingestion settings.
type IngestConfig struct {
	SeedCSV string `toml:"seed_csv,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n <= 0 {
				return fmt.Errorf("invalid value for %s: must be positive", name)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"ollama.host": stringKey(func(c *Config) *string { return &c.Ollama.Host }),

	"llm.provider": stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.model":    stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.LLM.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for llm.temperature: %w", err)
			}
			c.LLM.Temperature = f
			return nil
		},
	},

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},

	"vector_store.provider":    stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":      stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.persist_dir": stringKey(func(c *Config) *string { return &c.VectorStore.PersistDir }),
	"vector_store.collection":  stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.api_key":     stringKey(func(c *Config) *string { return &c.VectorStore.APIKey }),

	"retrieval.top_k":             intKey("retrieval.top_k", func(c *Config) *int { return &c.Retrieval.TopK }),
	"retrieval.snippet_max_chars": intKey("retrieval.snippet_max_chars", func(c *Config) *int { return &c.Retrieval.SnippetMaxChars }),
	"retrieval.context_max_chars": intKey("retrieval.context_max_chars", func(c *Config) *int { return &c.Retrieval.ContextMaxChars }),

	"web.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Web.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for web.enabled: %w", err)
			}
			c.Web.Enabled = b
			return nil
		},
	},
	"web.max_results": intKey("web.max_results", func(c *Config) *int { return &c.Web.MaxResults }),
	"web.endpoint":    stringKey(func(c *Config) *string { return &c.Web.Endpoint }),

	"api.listen":       stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.cors_origins": stringKey(func(c *Config) *string { return &c.API.CORSOrigins }),

	"history.provider":     stringKey(func(c *Config) *string { return &c.History.Provider }),
	"history.sqlite_path":  stringKey(func(c *Config) *string { return &c.History.SQLitePath }),
	"history.postgres_dsn": stringKey(func(c *Config) *string { return &c.History.PostgresDSN }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"ingest.seed_csv": stringKey(func(c *Config) *string { return &c.Ingest.SeedCSV }),
}
