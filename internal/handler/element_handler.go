package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/service"
)

// ElementHandler handles element indexing endpoints.
type ElementHandler struct {
	index *service.IndexService
}

// NewElementHandler creates a new element handler.
func NewElementHandler(index *service.IndexService) *ElementHandler {
	return &ElementHandler{index: index}
}

// Register sets up element routes.
func (h *ElementHandler) Register(router fiber.Router) {
	router.Post("/elements", h.Index)
	router.Post("/elements/batch", h.IndexBatch)
	router.Delete("/elements", h.DeleteAll)
}

// Index embeds and stores a single element, consulting the embedding cache
// when a file hash is present.
func (h *ElementHandler) Index(c fiber.Ctx) error {
	var el domain.ElementData
	if err := c.Bind().JSON(&el); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	id, err := h.index.IndexElement(c.Context(), el)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{"id": id})
}

// IndexBatch indexes many elements; the response ids align with the input
// order. All-or-nothing: any item's failure stores nothing.
func (h *ElementHandler) IndexBatch(c fiber.Ctx) error {
	var els []domain.ElementData
	if err := c.Bind().JSON(&els); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ids, err := h.index.IndexElementBatch(c.Context(), els)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{"ids": ids})
}

// DeleteAll wipes every indexed record. The embedding cache keeps its own
// lifecycle and survives the wipe.
func (h *ElementHandler) DeleteAll(c fiber.Ctx) error {
	count, err := h.index.DeleteAll(c.Context())
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "deletedCount": count})
}

// jsonError maps an error kind to an HTTP status exactly once, at the edge.
func jsonError(c fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
}

func errorStatus(err error) int {
	var verr *port.ValidationError
	var perr *port.ProviderError

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &perr):
		return fiber.StatusBadGateway
	default:
		// ErrNoEmbedEndpoint, StoreError and anything unexpected.
		return fiber.StatusInternalServerError
	}
}
