package config

const (
	defaultOllamaHost = "http://localhost:11434"
	defaultProvider   = "ollama"

	defaultLLMModel       = "llama3.1:8b"
	defaultLLMTemperature = 0.2

	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultVectorProvider = "sqlite"
	defaultPersistDir     = "./db"
	defaultCollection     = "news"

	defaultTopK            = 6
	defaultSnippetMaxChars = 800
	defaultContextMaxChars = 6000

	defaultWebMaxResults = 5
	defaultWebEndpoint   = "https://html.duckduckgo.com/html/"

	defaultAPIListen   = ":8000"
	defaultCORSOrigins = "http://localhost:5173"

	defaultHistoryProvider = "sqlite"

	defaultEventsProvider = "none"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "aletheia.verdicts"

	defaultSeedCSV = "data/seed.csv"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Ollama: OllamaConfig{
			Host: defaultOllamaHost,
		},
		LLM: LLMConfig{
			Provider:    defaultProvider,
			Model:       defaultLLMModel,
			Temperature: defaultLLMTemperature,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			PersistDir: defaultPersistDir,
			Collection: defaultCollection,
		},
		Retrieval: RetrievalConfig{
			TopK:            defaultTopK,
			SnippetMaxChars: defaultSnippetMaxChars,
			ContextMaxChars: defaultContextMaxChars,
		},
		Web: WebConfig{
			Enabled:    true,
			MaxResults: defaultWebMaxResults,
			Endpoint:   defaultWebEndpoint,
		},
		API: APIConfig{
			Listen:      defaultAPIListen,
			CORSOrigins: defaultCORSOrigins,
		},
		History: HistoryConfig{
			Provider: defaultHistoryProvider,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
		Ingest: IngestConfig{
			SeedCSV: defaultSeedCSV,
		},
	}
}
