package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
)

type ThreadHandler struct {
	threads out.ThreadRepository
}

func NewThreadHandler(threads out.ThreadRepository) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

func (h *ThreadHandler) Register(app fiber.Router) {
	threads := app.Group("/threads")
	threads.Post("/", h.Create)
	threads.Get("/", h.List)
	threads.Get("/:id", h.Get)
	threads.Put("/:id/directives", h.UpdateDirectives)
	threads.Post("/:id/messages", h.AddMessage)
}

type createThreadRequest struct {
	Subject          string   `json:"subject"`
	CompanyContextID *int64   `json:"company_context_id"`
	ExtraDirectives  []string `json:"extra_directives"`
	CustomPrompt     string   `json:"custom_prompt"`
}

func (h *ThreadHandler) Create(c *fiber.Ctx) error {
	var req createThreadRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return apperr.MissingField("subject")
	}

	thread := &domain.Thread{
		Subject:          strings.TrimSpace(req.Subject),
		CompanyContextID: req.CompanyContextID,
		ExtraDirectives:  req.ExtraDirectives,
		CustomPrompt:     req.CustomPrompt,
	}
	if err := h.threads.Create(c.UserContext(), thread); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(thread)
}

func (h *ThreadHandler) List(c *fiber.Ctx) error {
	threads, err := h.threads.List(c.UserContext(), &out.ThreadListQuery{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("skip", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"threads": threads})
}

// Get returns the thread with its messages, oldest first.
func (h *ThreadHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	thread, err := h.threads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if thread.Messages, err = h.threads.Messages(ctx, id); err != nil {
		return err
	}
	thread.MessageCount = len(thread.Messages)
	return c.JSON(thread)
}

type updateDirectivesRequest struct {
	ExtraDirectives []string `json:"extra_directives"`
	CustomPrompt    *string  `json:"custom_prompt"`
}

func (h *ThreadHandler) UpdateDirectives(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateDirectivesRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	thread, err := h.threads.UpdateDirectives(c.UserContext(), id, req.ExtraDirectives, req.CustomPrompt)
	if err != nil {
		return err
	}
	return c.JSON(thread)
}

type addMessageRequest struct {
	MessageType           domain.MessageType `json:"message_type"`
	Subject               string             `json:"subject"`
	Body                  string             `json:"body"`
	SenderName            string             `json:"sender_name"`
	SenderPosition        string             `json:"sender_position"`
	GenerationTimeSeconds *float64           `json:"generation_time_seconds"`
}

func (h *ThreadHandler) AddMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req addMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.MessageType != domain.MessageIncoming && req.MessageType != domain.MessageOutgoing {
		return apperr.InvalidInput("message_type", "must be one of incoming, outgoing")
	}
	if err := (domain.InboundEmail{Subject: req.Subject, Body: req.Body}).Validate(); err != nil {
		return err
	}

	msg := &domain.ThreadMessage{
		ThreadID:              id,
		Type:                  req.MessageType,
		Subject:               req.Subject,
		Body:                  req.Body,
		SenderName:            strings.TrimSpace(req.SenderName),
		SenderPosition:        strings.TrimSpace(req.SenderPosition),
		GenerationTimeSeconds: req.GenerationTimeSeconds,
	}
	if err := h.threads.AddMessage(c.UserContext(), msg); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
