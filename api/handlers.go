package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/aletheia/pkg/pipeline"
	"github.com/papercomputeco/aletheia/pkg/storage"
)

// RootMessage is returned by GET /.
const RootMessage = "AletheIA Backend está rodando!"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`

	// Raw is the model reply when it could not be parsed.
	Raw string `json:"raw,omitempty"`
}

// VerifyRequest is the body of POST /api/verify.
type VerifyRequest struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`

	// UseWeb overrides the server default when present.
	UseWeb        *bool `json:"use_web,omitempty"`
	MaxWebResults int   `json:"max_web_results,omitempty"`
}

// HistoryResponse lists recent verdicts, newest first.
type HistoryResponse struct {
	Items []*storage.Record `json:"items"`
	Total int               `json:"total"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": RootMessage})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleVerify checks one claim. A model reply that is not valid JSON is
// reported as a 500 like any backend failure.
func (s *Server) handleVerify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "invalid request body"})
	}

	res, _, err := s.pipeline.Verify(c.UserContext(), pipeline.Request{
		Surface:       pipeline.SurfaceAPI,
		Text:          req.Text,
		URL:           req.URL,
		UseWeb:        req.UseWeb,
		MaxWebResults: req.MaxWebResults,
	})
	switch {
	case errors.Is(err, pipeline.ErrNoClaim):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "text is required"})
	case errors.Is(err, pipeline.ErrExtract):
		s.logger.Warn("url extraction failed", "url", req.URL, "error", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Detail: pipeline.NoTextMessage})
	case err != nil:
		s.logger.Error("verify failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: err.Error()})
	}

	if !res.OK() {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: res.Error, Raw: res.Raw})
	}
	return c.JSON(res)
}

// handleSearch returns the evidence context for a query.
// Query parameters:
//   - query (required): the claim to search evidence for
//   - top_k (optional): number of documents to retrieve
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "query parameter is required"})
	}

	topK, ok := positiveInt(c.Query("top_k"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "top_k must be a positive integer"})
	}

	out, err := s.pipeline.Search(c.UserContext(), query, topK)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: err.Error()})
	}
	return c.JSON(out)
}

// handleListHistory returns the most recent verdicts.
func (s *Server) handleListHistory(c *fiber.Ctx) error {
	history := s.pipeline.History()
	if history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Detail: "history is disabled"})
	}

	limit, ok := positiveInt(c.Query("limit"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Detail: "limit must be a positive integer"})
	}

	ctx := c.UserContext()
	items, err := history.List(ctx, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: "failed to list history"})
	}
	total, err := history.Count(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: "failed to count history"})
	}

	if items == nil {
		items = []*storage.Record{}
	}
	return c.JSON(HistoryResponse{Items: items, Total: total})
}

// handleGetHistory returns one verdict by id.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	history := s.pipeline.History()
	if history == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Detail: "history is disabled"})
	}

	record, err := history.Get(c.UserContext(), c.Params("id"))
	var notFound storage.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Detail: "verdict not found"})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Detail: err.Error()})
	}
	return c.JSON(record)
}

// positiveInt parses an optional query value. Empty yields 0.
func positiveInt(v string) (int, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
