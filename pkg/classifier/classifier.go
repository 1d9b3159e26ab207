// Package classifier asks the model for a verdict on a claim, grounded on
// retrieved evidence and optionally on live web results.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/aletheia/pkg/llm"
	"github.com/papercomputeco/aletheia/pkg/retriever"
	"github.com/papercomputeco/aletheia/pkg/websearch"
)

// SystemPrompt instructs the model to answer with the verdict object only.
const SystemPrompt = `Você é um verificador de fatos especializado.
Você deve analisar o enunciado usando APENAS o contexto fornecido.
Responda ESTRITAMENTE no formato JSON com as chaves:
- "label": "VERDADEIRA" ou "FALSA"
- "confidence": número entre 0 e 1 (use no mínimo 0.5 e no máximo 0.99)
- "rationale": explicação breve em português (máx. 3 frases)
- "used_sources": lista de strings com "titulo | url | label" usadas como evidência

Regras:
- Se o contexto contradiz claramente o enunciado, use "FALSA".
- Se o contexto corrobora de forma consistente, use "VERDADEIRA".
- Se o contexto for insuficiente ou contraditório, escolha o lado mais suportado, mas reduza "confidence".
- Nunca invente fatos fora do contexto fornecido.
- NÃO inclua texto fora do JSON. NÃO inclua comentários. Apenas o objeto JSON.
`

var (
	// ErrEmptyClaim is returned for a blank claim, before any I/O.
	ErrEmptyClaim = errors.New("claim is empty")

	// ErrWebUnavailable is returned when web evidence is requested but no
	// searcher is configured.
	ErrWebUnavailable = errors.New("web search is not configured")
)

// ContextBuilder assembles retrieved evidence for a claim.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string, topK int, includeDistances bool) (*retriever.Context, error)
}

// Options tune one classification.
type Options struct {
	UseWeb        bool
	MaxWebResults int

	// TopK overrides the retriever's default when positive.
	TopK int
}

// Config wires a Classifier. Web may be nil when web evidence is disabled.
type Config struct {
	Retriever ContextBuilder
	Chat      llm.Chatter
	Web       websearch.Searcher
	Logger    *slog.Logger
}

// Classifier produces verdicts.
type Classifier struct {
	retriever ContextBuilder
	chat      llm.Chatter
	web       websearch.Searcher
	logger    *slog.Logger
}

// New creates a Classifier.
func New(c Config) (*Classifier, error) {
	if c.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if c.Chat == nil {
		return nil, errors.New("chat client is required")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{
		retriever: c.Retriever,
		chat:      c.Chat,
		web:       c.Web,
		logger:    logger,
	}, nil
}

// Classify runs retrieval, the optional web search and one chat call, then
// parses the reply. Transport failures are returned as errors; an
// unparsable reply is a Result with Error set.
func (c *Classifier) Classify(ctx context.Context, claim string, opts Options) (*Result, error) {
	if strings.TrimSpace(claim) == "" {
		return nil, ErrEmptyClaim
	}

	evidence, err := c.retriever.BuildContext(ctx, claim, opts.TopK, true)
	if err != nil {
		return nil, fmt.Errorf("building context: %w", err)
	}

	fullContext := evidence.Context
	var webResults []websearch.Result
	if opts.UseWeb {
		if c.web == nil {
			return nil, ErrWebUnavailable
		}
		webResults, err = c.web.Search(ctx, claim, opts.MaxWebResults)
		if err != nil {
			return nil, fmt.Errorf("searching the web: %w", err)
		}
		fullContext = fullContext + "\n\n" + websearch.Format(webResults)
	}

	reply, err := c.chat.Chat(ctx, []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, SystemPrompt),
		llm.NewTextMessage(llm.RoleUser, retriever.BuildPrompt(claim, fullContext)),
	})
	if err != nil {
		return nil, err
	}

	result := Parse(reply)
	if !result.OK() {
		c.logger.Warn("model reply is not valid JSON", "raw_chars", len(reply))
		return result, nil
	}

	if result.UsedSources == nil {
		result.UsedSources = evidence.Sources
	}
	result.Debug = &Debug{
		Hits:       evidence.Hits,
		RawSources: evidence.Sources,
	}
	if opts.UseWeb {
		result.WebResults = webResults
		if result.WebResults == nil {
			result.WebResults = []websearch.Result{}
		}
	}

	c.logger.Info("claim classified",
		"label", result.Label,
		"confidence", result.ConfidenceOr(0),
		"hits", evidence.Hits,
		"web_results", len(webResults),
	)

	return result, nil
}
