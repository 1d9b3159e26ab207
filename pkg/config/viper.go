package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/aletheia/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. ALETHEIA_OLLAMA_HOST.
const EnvPrefix = "ALETHEIA"

// legacyEnv maps config keys to the unprefixed variable names older .env
// files use. The prefixed name always wins.
var legacyEnv = map[string]string{
	"ollama.host":                 "OLLAMA_HOST",
	"llm.model":                   "LLM_MODEL",
	"embedding.model":             "EMBED_MODEL",
	"vector_store.persist_dir":    "CHROMA_DIR",
	"vector_store.collection":     "COLLECTION_NAME",
	"retrieval.top_k":             "TOP_K",
	"retrieval.snippet_max_chars": "RAG_SNIPPET_MAX",
	"retrieval.context_max_chars": "RAG_CONTEXT_MAX",
	"ingest.seed_csv":             "SEED_CSV_PATH",
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ALETHEIA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ALETHEIA_OLLAMA_HOST, then OLLAMA_HOST, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	for _, key := range ValidConfigKeys() {
		v.SetDefault(key, configKeys[key].get(d))
	}
	v.SetDefault("version", d.Version)
}

// FromViper materialises the layered view of v into a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Ollama: OllamaConfig{
			Host: v.GetString("ollama.host"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Model:       v.GetString("llm.model"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			PersistDir: v.GetString("vector_store.persist_dir"),
			Collection: v.GetString("vector_store.collection"),
			APIKey:     v.GetString("vector_store.api_key"),
		},
		Retrieval: RetrievalConfig{
			TopK:            v.GetInt("retrieval.top_k"),
			SnippetMaxChars: v.GetInt("retrieval.snippet_max_chars"),
			ContextMaxChars: v.GetInt("retrieval.context_max_chars"),
		},
		Web: WebConfig{
			Enabled:    v.GetBool("web.enabled"),
			MaxResults: v.GetInt("web.max_results"),
			Endpoint:   v.GetString("web.endpoint"),
		},
		API: APIConfig{
			Listen:      v.GetString("api.listen"),
			CORSOrigins: v.GetString("api.cors_origins"),
		},
		History: HistoryConfig{
			Provider:    v.GetString("history.provider"),
			SQLitePath:  v.GetString("history.sqlite_path"),
			PostgresDSN: v.GetString("history.postgres_dsn"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		Ingest: IngestConfig{
			SeedCSV: v.GetString("ingest.seed_csv"),
		},
	}
}
