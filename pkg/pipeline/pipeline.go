// Package pipeline assembles the fact-checking components behind one value
// shared by the CLI, the HTTP API and the MCP tools.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/eventstream"
	"github.com/papercomputeco/aletheia/pkg/knowledge"
	"github.com/papercomputeco/aletheia/pkg/retriever"
	"github.com/papercomputeco/aletheia/pkg/storage"
	"github.com/papercomputeco/aletheia/pkg/verdictlog"
)

// Surfaces that issue verdicts.
const (
	SurfaceAPI = "api"
	SurfaceMCP = "mcp"
	SurfaceCLI = "cli"
)

var (
	// ErrNoClaim is returned when a request carries neither text nor URL.
	ErrNoClaim = errors.New("a claim text or a URL is required")

	// ErrExtract wraps a URL that produced nothing to check.
	ErrExtract = errors.New("url extraction failed")
)

// NoTextMessage is shown to users when ErrExtract is returned.
const NoTextMessage = "Não foi possível extrair texto útil da página."

// Classifier produces a verdict for a claim.
type Classifier interface {
	Classify(ctx context.Context, claim string, opts classifier.Options) (*classifier.Result, error)
}

// Extractor turns a page URL into claim text.
type Extractor interface {
	ExtractText(ctx context.Context, url string) (string, error)
}

// Config wires a Pipeline. Extractor, History and Publisher are optional.
type Config struct {
	Store      *knowledge.Store
	Retriever  classifier.ContextBuilder
	Classifier Classifier
	Extractor  Extractor
	History    storage.Driver
	Publisher  eventstream.Publisher

	// Model is recorded on published events.
	Model string

	// WebEnabled is the default for requests that do not choose.
	WebEnabled    bool
	MaxWebResults int

	Logger *slog.Logger
}

// Pipeline runs verdict requests and records their outcome.
type Pipeline struct {
	config   Config
	verdicts *verdictlog.Pool
	logger   *slog.Logger
}

// Request is one verdict request. Text wins over URL when both are set.
type Request struct {
	Surface string
	Text    string
	URL     string

	// UseWeb overrides the configured default when non-nil.
	UseWeb        *bool
	MaxWebResults int
	TopK          int
}

// New creates a Pipeline and starts its verdict log workers.
func New(c Config) (*Pipeline, error) {
	if c.Store == nil {
		return nil, errors.New("knowledge store is required")
	}
	if c.Retriever == nil {
		return nil, errors.New("retriever is required")
	}
	if c.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pipeline{config: c, logger: logger}
	if c.History != nil || c.Publisher != nil {
		pool, err := verdictlog.NewPool(&verdictlog.Config{
			History:   c.History,
			Publisher: c.Publisher,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("starting verdict log: %w", err)
		}
		p.verdicts = pool
	}
	return p, nil
}

// Store returns the evidence store.
func (p *Pipeline) Store() *knowledge.Store {
	return p.config.Store
}

// Classifier returns the verdict producer without the verdict log, for
// batch evaluation.
func (p *Pipeline) Classifier() Classifier {
	return p.config.Classifier
}

// History returns the verdict history, or nil when none is configured.
func (p *Pipeline) History() storage.Driver {
	return p.config.History
}

// Verify resolves the claim text, classifies it and queues the verdict for
// the history and the event stream. It returns the claim that was checked.
func (p *Pipeline) Verify(ctx context.Context, req Request) (*classifier.Result, string, error) {
	claim := strings.TrimSpace(req.Text)
	if claim == "" && req.URL != "" {
		text, err := p.extract(ctx, req.URL)
		if err != nil {
			return nil, "", err
		}
		claim = text
	}
	if claim == "" {
		return nil, "", ErrNoClaim
	}

	useWeb := p.config.WebEnabled
	if req.UseWeb != nil {
		useWeb = *req.UseWeb
	}
	maxWeb := req.MaxWebResults
	if maxWeb <= 0 {
		maxWeb = p.config.MaxWebResults
	}

	started := time.Now()
	res, err := p.config.Classifier.Classify(ctx, claim, classifier.Options{
		UseWeb:        useWeb,
		MaxWebResults: maxWeb,
		TopK:          req.TopK,
	})
	if err != nil {
		return nil, claim, err
	}

	if p.verdicts != nil {
		p.verdicts.Enqueue(verdictlog.Job{
			Surface:     req.Surface,
			Claim:       claim,
			URL:         req.URL,
			Model:       p.config.Model,
			StartedAt:   started,
			CompletedAt: time.Now(),
			UsedWeb:     useWeb,
			Result:      res,
		})
	}
	return res, claim, nil
}

func (p *Pipeline) extract(ctx context.Context, url string) (string, error) {
	if p.config.Extractor == nil {
		return "", fmt.Errorf("%w: no extractor configured", ErrExtract)
	}
	text, err := p.config.Extractor.ExtractText(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtract, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrExtract, url)
	}
	p.logger.Debug("claim extracted from url", "url", url, "chars", len(text))
	return text, nil
}

// Search builds the evidence context for query without asking the model.
func (p *Pipeline) Search(ctx context.Context, query string, topK int) (*retriever.Context, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrNoClaim
	}
	return p.config.Retriever.BuildContext(ctx, query, topK, true)
}

// Close drains queued verdicts, then releases every owned resource.
func (p *Pipeline) Close() error {
	if p.verdicts != nil {
		p.verdicts.Close()
	}

	var errs []error
	if p.config.Publisher != nil {
		errs = append(errs, p.config.Publisher.Close())
	}
	if p.config.History != nil {
		errs = append(errs, p.config.History.Close())
	}
	errs = append(errs, p.config.Store.Close())
	return errors.Join(errs...)
}
