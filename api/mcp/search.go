package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/aletheia/pkg/retriever"
	"github.com/papercomputeco/aletheia/pkg/utils"
)

var (
	searchToolName    = "search_evidence"
	searchDescription = "Search the indexed fact-check corpus for the documents closest to a claim, without asking the model for a verdict."

	previewChars = 200
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the claim to find evidence for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of documents to return (default: 6)"`
}

// Evidence is one retrieved document.
type Evidence struct {
	Rank     int     `json:"rank"`
	Title    string  `json:"title"`
	Label    string  `json:"label"`
	Source   string  `json:"source"`
	Distance float32 `json:"distance"`
	Preview  string  `json:"preview"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string     `json:"query"`
	Results []Evidence `json:"results"`
	Sources []string   `json:"sources"`
	Count   int        `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP search request", "query", input.Query, "topK", input.TopK)

	evidence, err := s.config.Pipeline.Search(ctx, input.Query, input.TopK)
	if err != nil {
		logger.Error("MCP search failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to search evidence: %v", err)), SearchOutput{}, nil
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: buildEvidence(evidence),
		Sources: evidence.Sources,
	}
	output.Count = len(output.Results)

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err)), SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// buildEvidence flattens the raw retrieval columns into one entry per
// document.
func buildEvidence(c *retriever.Context) []Evidence {
	out := make([]Evidence, 0, len(c.Raw.Documents))
	for i, doc := range c.Raw.Documents {
		e := Evidence{
			Rank:    i + 1,
			Preview: utils.Truncate(doc, previewChars),
		}
		if i < len(c.Raw.Metadatas) {
			m := c.Raw.Metadatas[i]
			e.Title, e.Label, e.Source = m.Title, m.Label, m.Source
		}
		if i < len(c.Raw.Distances) {
			e.Distance = c.Raw.Distances[i]
		}
		out = append(out, e)
	}
	return out
}
