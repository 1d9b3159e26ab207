// Package retriever turns similarity hits into the bounded evidence context
// handed to the model.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papercomputeco/aletheia/pkg/vector"
)

const (
	DefaultTopK            = 6
	DefaultSnippetMaxChars = 800
	DefaultContextMaxChars = 6000

	// BlockSeparator joins formatted blocks in the context.
	BlockSeparator = "\n\n---\n\n"

	// Ellipsis marks a truncated snippet.
	Ellipsis = "..."

	// wordTailWindow is how close to the cut point the last space must be
	// for truncation to back off to it.
	wordTailWindow = 40
)

// Searcher is the similarity query the retriever needs from the store.
type Searcher interface {
	QuerySimilar(ctx context.Context, queryText string, topK int) ([]vector.QueryResult, error)
}

// Config holds the retriever's budgets. Zero values take the defaults.
type Config struct {
	TopK            int
	SnippetMaxChars int
	ContextMaxChars int
}

// Retriever builds evidence contexts.
type Retriever struct {
	store  Searcher
	cfg    Config
	logger *slog.Logger
}

// RawResult is the unfiltered query response, kept for debugging.
type RawResult struct {
	Documents []string          `json:"documents"`
	Metadatas []vector.Metadata `json:"metadatas"`
	Distances []float32         `json:"distances"`
}

// Context is the outcome of BuildContext.
type Context struct {
	Context string    `json:"context"`
	Hits    int       `json:"hits"`
	Sources []string  `json:"sources"`
	Raw     RawResult `json:"raw"`
}

// New creates a Retriever over store.
func New(store Searcher, cfg Config, logger *slog.Logger) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SnippetMaxChars <= 0 {
		cfg.SnippetMaxChars = DefaultSnippetMaxChars
	}
	if cfg.ContextMaxChars <= 0 {
		cfg.ContextMaxChars = DefaultContextMaxChars
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Retriever{store: store, cfg: cfg, logger: logger}
}

// TopK returns the configured default number of hits.
func (r *Retriever) TopK() int {
	return r.cfg.TopK
}

// BuildContext queries the store and assembles ranked, truncated blocks.
// topK <= 0 uses the configured default. The total length of the context,
// separators included, stays within ContextMaxChars unless the first block
// alone exceeds it; the first block is always kept.
func (r *Retriever) BuildContext(ctx context.Context, query string, topK int, includeDistances bool) (*Context, error) {
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	hits, err := r.store.QuerySimilar(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	out := &Context{
		Sources: []string{},
		Raw: RawResult{
			Documents: make([]string, 0, len(hits)),
			Metadatas: make([]vector.Metadata, 0, len(hits)),
			Distances: []float32{},
		},
	}

	var (
		blocks []string
		used   int
	)
	sepLen := utf8.RuneCountInString(BlockSeparator)

	// Raw and Sources cover every hit; only the blocks are budgeted.
	for _, hit := range hits {
		out.Raw.Documents = append(out.Raw.Documents, hit.Text)
		out.Raw.Metadatas = append(out.Raw.Metadatas, hit.Metadata)
		if includeDistances {
			out.Raw.Distances = append(out.Raw.Distances, hit.Distance)
		}
	}

	for i, hit := range hits {
		var distance *float32
		if includeDistances {
			distance = &hit.Distance
		}
		block := r.formatBlock(hit, i+1, distance)

		cost := utf8.RuneCountInString(block)
		if len(blocks) > 0 {
			cost += sepLen
		}
		if len(blocks) > 0 && used+cost > r.cfg.ContextMaxChars {
			break
		}
		blocks = append(blocks, block)
		used += cost
	}

	out.Context = strings.Join(blocks, BlockSeparator)
	out.Hits = len(blocks)
	out.Sources = UniqueSources(out.Raw.Metadatas)

	r.logger.Debug("built context",
		"retrieved", len(hits),
		"hits", out.Hits,
		"context_chars", used,
		"sources", len(out.Sources),
	)

	return out, nil
}

func (r *Retriever) formatBlock(hit vector.QueryResult, rank int, distance *float32) string {
	title := strings.TrimSpace(hit.Metadata.Title)
	if title == "" {
		title = fmt.Sprintf("Documento %d", rank)
	}
	source := strings.TrimSpace(hit.Metadata.Source)
	label := strings.TrimSpace(hit.Metadata.Label)

	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", rank, title)
	if label != "" {
		fmt.Fprintf(&b, " (label=%s)", label)
	}
	if source != "" {
		fmt.Fprintf(&b, "\nFonte: %s", source)
	}
	if distance != nil && !math.IsNaN(float64(*distance)) {
		fmt.Fprintf(&b, "\nSimilaridade: %.3f", 1-float64(*distance))
	}
	fmt.Fprintf(&b, "\nTrecho: %s", Truncate(hit.Text, r.cfg.SnippetMaxChars))
	return b.String()
}

// Truncate cuts txt to at most maxChars runes. Trailing whitespace is
// dropped, and when the last space falls inside the tail window the cut
// backs off to it so a word is not split. Truncated text ends in Ellipsis.
func Truncate(txt string, maxChars int) string {
	runes := []rune(txt)
	if len(runes) <= maxChars {
		return txt
	}

	cut := []rune(strings.TrimRightFunc(string(runes[:maxChars]), unicode.IsSpace))
	lastSpace := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if lastSpace > 0 && maxChars-lastSpace < wordTailWindow {
		cut = cut[:lastSpace]
	}
	return string(cut) + Ellipsis
}

// SourceTag formats the provenance string of one document.
func SourceTag(m vector.Metadata) string {
	return fmt.Sprintf("%s | %s | %s",
		strings.TrimSpace(m.Title),
		strings.TrimSpace(m.Source),
		strings.TrimSpace(m.Label),
	)
}

// UniqueSources returns the distinct source tags in first-seen order.
func UniqueSources(metadatas []vector.Metadata) []string {
	seen := make(map[string]struct{}, len(metadatas))
	out := make([]string, 0, len(metadatas))
	for _, m := range metadatas {
		tag := SourceTag(m)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
