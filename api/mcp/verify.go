package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/aletheia/pkg/pipeline"
	"github.com/papercomputeco/aletheia/pkg/websearch"
)

var (
	verifyToolName    = "verify_claim"
	verifyDescription = "Check whether a news claim (in Portuguese) is VERDADEIRA or FALSA using the indexed fact-check corpus and, optionally, live web results. Pass either the claim text or the URL of a news page."
)

// VerifyInput represents the input arguments for the verify tool.
type VerifyInput struct {
	Text          string `json:"text,omitempty" jsonschema:"the claim to check"`
	URL           string `json:"url,omitempty" jsonschema:"a news page whose text is checked when text is empty"`
	UseWeb        *bool  `json:"use_web,omitempty" jsonschema:"search the web for extra evidence (server default when omitted)"`
	MaxWebResults int    `json:"max_web_results,omitempty" jsonschema:"number of web results to use (default: 5)"`
}

// VerifyOutput is the verdict returned by the verify tool.
type VerifyOutput struct {
	Claim       string             `json:"claim"`
	Label       string             `json:"label"`
	Confidence  *float64           `json:"confidence,omitempty"`
	Rationale   string             `json:"rationale"`
	UsedSources []string           `json:"used_sources"`
	Hits        int                `json:"hits"`
	WebResults  []websearch.Result `json:"web_results,omitempty"`
}

// handleVerify processes a verify request.
func (s *Server) handleVerify(ctx context.Context, _ *mcp.CallToolRequest, input VerifyInput) (*mcp.CallToolResult, VerifyOutput, error) {
	logger := s.config.Logger
	logger.Debug("MCP verify request", "url", input.URL, "chars", len(input.Text))

	res, claim, err := s.config.Pipeline.Verify(ctx, pipeline.Request{
		Surface:       pipeline.SurfaceMCP,
		Text:          input.Text,
		URL:           input.URL,
		UseWeb:        input.UseWeb,
		MaxWebResults: input.MaxWebResults,
	})
	if err != nil {
		logger.Error("MCP verify failed", "error", err)
		return errorResult(fmt.Sprintf("Failed to verify claim: %v", err)), VerifyOutput{}, nil
	}
	if !res.OK() {
		return errorResult(fmt.Sprintf("%s\n\n%s", res.Error, res.Raw)), VerifyOutput{}, nil
	}

	output := VerifyOutput{
		Claim:       claim,
		Label:       res.Label,
		Confidence:  res.Confidence,
		Rationale:   res.Rationale,
		UsedSources: res.UsedSources,
		WebResults:  res.WebResults,
	}
	if res.Debug != nil {
		output.Hits = res.Debug.Hits
	}

	// Structured output is mirrored as JSON text for clients that only
	// read text content.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to serialize verdict: %v", err)), VerifyOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
