package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g. --collection
// on "aletheia ingest", "aletheia search" and "aletheia status").
type Flag struct {
	// Name is the long flag name (e.g. "ollama-host").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "ollama.host").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling the Add*Flag helpers and
// BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagOllamaHost      = "ollama-host"
	FlagLLMModel        = "llm-model"
	FlagEmbeddingModel  = "embedding-model"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagPersistDir      = "persist-dir"
	FlagCollection      = "collection"
	FlagTopK            = "top-k"
	FlagMaxWebResults   = "max-web-results"
	FlagListen          = "listen"
	FlagHistoryProv     = "history-provider"
	FlagEventsProv      = "events-provider"
	FlagSeedCSV         = "csv"
)

// Flags is the registry shared by every aletheia command.
var Flags = FlagSet{
	FlagOllamaHost: {
		Name:        "ollama-host",
		ViperKey:    "ollama.host",
		Description: "Ollama server URL",
	},
	FlagLLMModel: {
		Name:        "llm-model",
		ViperKey:    "llm.model",
		Description: "Chat model used for verdicts",
	},
	FlagEmbeddingModel: {
		Name:        "embedding-model",
		ViperKey:    "embedding.model",
		Description: "Embedding model used for indexing and queries",
	},
	FlagVectorStoreProv: {
		Name:        "vector-store-provider",
		ViperKey:    "vector_store.provider",
		Description: "Vector store (sqlite, chroma, qdrant, memory)",
	},
	FlagVectorStoreTgt: {
		Name:        "vector-store-target",
		ViperKey:    "vector_store.target",
		Description: "Vector store server address (chroma, qdrant)",
	},
	FlagPersistDir: {
		Name:        "persist-dir",
		ViperKey:    "vector_store.persist_dir",
		Description: "Directory holding the sqlite vector file",
	},
	FlagCollection: {
		Name:        "collection",
		ViperKey:    "vector_store.collection",
		Description: "Evidence collection name",
	},
	FlagTopK: {
		Name:        "top-k",
		Shorthand:   "k",
		ViperKey:    "retrieval.top_k",
		Description: "Number of evidence documents to retrieve",
	},
	FlagMaxWebResults: {
		Name:        "max-web-results",
		ViperKey:    "web.max_results",
		Description: "Maximum number of web search results",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagHistoryProv: {
		Name:        "history-provider",
		ViperKey:    "history.provider",
		Description: "Verdict history store (none, memory, sqlite, postgres)",
	},
	FlagEventsProv: {
		Name:        "events-provider",
		ViperKey:    "events.provider",
		Description: "Verdict event publisher (none, kafka)",
	},
	FlagSeedCSV: {
		Name:        "csv",
		ViperKey:    "ingest.seed_csv",
		Description: "Path to the labelled seed CSV",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultInt returns the default int value for a viper key from NewDefaultConfig.
func defaultInt(viperKey string) int {
	v := viper.New()
	setViperDefaults(v)
	return v.GetInt(viperKey)
}
