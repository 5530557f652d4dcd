package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/service"
)

// Query parameter defaults for similarity endpoints.
const (
	DefaultThreshold = 0.8
	DefaultLimit     = 10
)

// SimilarityHandler handles similarity and search endpoints.
type SimilarityHandler struct {
	similarity *service.SimilarityService
}

// NewSimilarityHandler creates a new similarity handler.
func NewSimilarityHandler(similarity *service.SimilarityService) *SimilarityHandler {
	return &SimilarityHandler{similarity: similarity}
}

// Register sets up similarity routes. "/similar/all" must be registered
// before "/similar/:id" so "all" is not captured as a path parameter.
func (h *SimilarityHandler) Register(router fiber.Router) {
	router.Get("/similar/all", h.Pairs)
	router.Get("/similar/:id", h.Similar)
	router.Get("/search", h.Search)
	router.Get("/health", h.Health)
}

// Pairs returns the most similar element pairs across the whole index.
func (h *SimilarityHandler) Pairs(c fiber.Ctx) error {
	threshold, limit, err := queryParams(c)
	if err != nil {
		return jsonError(c, err)
	}

	pairs, err := h.similarity.FindMostSimilarPairs(c.Context(), threshold, limit)
	if err != nil {
		return jsonError(c, err)
	}
	if pairs == nil {
		pairs = []domain.SimilarPair{}
	}

	return c.JSON(fiber.Map{"pairs": pairs})
}

// Similar returns the elements most similar to a stored record.
func (h *SimilarityHandler) Similar(c fiber.Ctx) error {
	threshold, limit, err := queryParams(c)
	if err != nil {
		return jsonError(c, err)
	}

	elements, err := h.similarity.FindSimilar(c.Context(), c.Params("id"), threshold, limit)
	if err != nil {
		return jsonError(c, err)
	}
	if elements == nil {
		elements = []domain.ElementData{}
	}

	return c.JSON(fiber.Map{"similarElements": elements})
}

// Search embeds a free-text query and returns matching elements with scores.
func (h *SimilarityHandler) Search(c fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return jsonError(c, &port.ValidationError{Field: "q"})
	}

	threshold, limit, err := queryParams(c)
	if err != nil {
		return jsonError(c, err)
	}

	results, err := h.similarity.SearchText(c.Context(), q, threshold, limit)
	if err != nil {
		return jsonError(c, err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	return c.JSON(fiber.Map{"results": results})
}

// Health reports service liveness.
func (h *SimilarityHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func queryParams(c fiber.Ctx) (threshold float64, limit int, err error) {
	threshold = DefaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, &port.ValidationError{Field: "threshold"}
		}
	}

	limit = DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, &port.ValidationError{Field: "limit"}
		}
	}
	return threshold, limit, nil
}
