package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
)

// ContextHandler manages reusable company contexts.
type ContextHandler struct {
	contexts out.ContextRepository
}

func NewContextHandler(contexts out.ContextRepository) *ContextHandler {
	return &ContextHandler{contexts: contexts}
}

func (h *ContextHandler) Register(app fiber.Router) {
	contexts := app.Group("/contexts")
	contexts.Get("/", h.List)
	contexts.Post("/", h.Create)
	contexts.Get("/:id", h.Get)
	contexts.Put("/:id", h.Update)
	contexts.Delete("/:id", h.Delete)
}

type contextRequest struct {
	Name        string `json:"name"`
	ContextText string `json:"context_text"`
	Description string `json:"description"`
}

func (r *contextRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.MissingField("name")
	}
	if strings.TrimSpace(r.ContextText) == "" {
		return apperr.MissingField("context_text")
	}
	return nil
}

func (h *ContextHandler) List(c *fiber.Ctx) error {
	contexts, err := h.contexts.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(contexts)
}

func (h *ContextHandler) Create(c *fiber.Ctx) error {
	var req contextRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	cc := &domain.CompanyContext{
		Name:        strings.TrimSpace(req.Name),
		ContextText: req.ContextText,
		Description: req.Description,
	}
	if err := h.contexts.Create(c.UserContext(), cc); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(cc)
}

func (h *ContextHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	cc, err := h.contexts.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(cc)
}

func (h *ContextHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req contextRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	cc := &domain.CompanyContext{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		ContextText: req.ContextText,
		Description: req.Description,
	}
	if err := h.contexts.Update(c.UserContext(), cc); err != nil {
		return err
	}
	return c.JSON(cc)
}

func (h *ContextHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.contexts.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
