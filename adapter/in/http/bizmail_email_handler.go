package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bizmail_server/core/agent/llm"
	"bizmail_server/core/domain"
	"bizmail_server/core/port/in"
	"bizmail_server/core/port/out"
	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/logger"
)

// EmailHandler serves analysis, generation and routing lookups.
// Thread and context repositories are optional; without them
// thread_id and context_id are rejected.
type EmailHandler struct {
	service  in.AssistantService
	threads  out.ThreadRepository
	contexts out.ContextRepository
}

func NewEmailHandler(service in.AssistantService, threads out.ThreadRepository, contexts out.ContextRepository) *EmailHandler {
	return &EmailHandler{service: service, threads: threads, contexts: contexts}
}

func (h *EmailHandler) Register(app fiber.Router) {
	emails := app.Group("/emails")
	emails.Post("/analyze-detailed", h.AnalyzeDetailed)
	emails.Post("/analyze", h.AnalyzeParameters)
	emails.Post("/generate", h.Generate)

	app.Post("/recipient/check", h.CheckRecipient)
	app.Get("/departments", h.Departments)
}

type analysisRequest struct {
	SourceSubject  string `json:"source_subject"`
	SourceBody     string `json:"source_body"`
	CompanyContext string `json:"company_context"`
	ContextID      *int64 `json:"context_id"`
}

func (r *analysisRequest) email() domain.InboundEmail {
	return domain.InboundEmail{Subject: r.SourceSubject, Body: r.SourceBody}
}

type generateRequest struct {
	SourceSubject  string                 `json:"source_subject"`
	SourceBody     string                 `json:"source_body"`
	CompanyContext string                 `json:"company_context"`
	ContextID      *int64                 `json:"context_id"`
	ThreadID       *int64                 `json:"thread_id"`
	Parameters     domain.StyleParameters `json:"parameters"`
	CustomPrompt   string                 `json:"custom_prompt"`
	Department     string                 `json:"department"`
	RecipientName  string                 `json:"recipient_name"`

	SenderFirstName   string `json:"sender_first_name"`
	SenderLastName    string `json:"sender_last_name"`
	SenderMiddleName  string `json:"sender_middle_name"`
	SenderPosition    string `json:"sender_position"`
	SenderPhoneWork   string `json:"sender_phone_work"`
	SenderPhoneMobile string `json:"sender_phone_mobile"`
	SenderEmail       string `json:"sender_email"`
	SenderAddress     string `json:"sender_address"`
	SenderHotline     string `json:"sender_hotline"`
	SenderWebsite     string `json:"sender_website"`
}

func (r *generateRequest) sender() *domain.SenderIdentity {
	s := &domain.SenderIdentity{
		FirstName:   strings.TrimSpace(r.SenderFirstName),
		LastName:    strings.TrimSpace(r.SenderLastName),
		MiddleName:  strings.TrimSpace(r.SenderMiddleName),
		Position:    strings.TrimSpace(r.SenderPosition),
		PhoneWork:   strings.TrimSpace(r.SenderPhoneWork),
		PhoneMobile: strings.TrimSpace(r.SenderPhoneMobile),
		Email:       strings.TrimSpace(r.SenderEmail),
		Address:     strings.TrimSpace(r.SenderAddress),
		Hotline:     strings.TrimSpace(r.SenderHotline),
		Website:     strings.TrimSpace(r.SenderWebsite),
	}
	if !s.HasAny() {
		return nil
	}
	return s
}

func (h *EmailHandler) AnalyzeDetailed(c *fiber.Ctx) error {
	var req analysisRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.email().Validate(); err != nil {
		return err
	}

	ctx := c.UserContext()
	companyContext, err := h.resolveContext(ctx, req.CompanyContext, req.ContextID)
	if err != nil {
		return err
	}

	return c.JSON(h.service.AnalyzeEmail(ctx, req.email(), companyContext))
}

func (h *EmailHandler) AnalyzeParameters(c *fiber.Ctx) error {
	var req analysisRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := req.email().Validate(); err != nil {
		return err
	}

	ctx := c.UserContext()
	companyContext, err := h.resolveContext(ctx, req.CompanyContext, req.ContextID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"parameters": h.service.AnalyzeParameters(ctx, req.email(), companyContext)})
}

// Generate drafts a reply. With thread_id the thread's history, directives
// and context fill whatever the request leaves empty, and the exchange is
// appended to the thread afterwards.
func (h *EmailHandler) Generate(c *fiber.Ctx) error {
	req := generateRequest{Parameters: domain.DefaultStyleParameters()}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	genReq := &domain.GenerationRequest{
		Subject:        req.SourceSubject,
		Body:           req.SourceBody,
		Context:        req.CompanyContext,
		Parameters:     req.Parameters,
		Sender:         req.sender(),
		CustomPrompt:   strings.TrimSpace(req.CustomPrompt),
		DepartmentHint: strings.TrimSpace(req.Department),
		RecipientName:  strings.TrimSpace(req.RecipientName),
	}
	if err := genReq.Validate(); err != nil {
		return err
	}

	contextID := req.ContextID
	if req.ThreadID != nil {
		thread, err := h.loadThread(ctx, *req.ThreadID, genReq)
		if err != nil {
			return err
		}
		if contextID == nil {
			contextID = thread.CompanyContextID
		}
	}

	companyContext, err := h.resolveContext(ctx, genReq.Context, contextID)
	if err != nil {
		return err
	}
	genReq.Context = companyContext

	start := time.Now()
	reply, err := h.service.GenerateReply(ctx, genReq)
	if err != nil {
		return err
	}

	if req.ThreadID != nil {
		h.recordExchange(ctx, *req.ThreadID, genReq, reply, time.Since(start))
	}

	return c.JSON(reply)
}

func (h *EmailHandler) CheckRecipient(c *fiber.Ctx) error {
	var req analysisRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return c.JSON(h.service.CheckRecipient(req.email()))
}

func (h *EmailHandler) Departments(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"departments": h.service.Departments()})
}

// resolveContext returns text when set, else the stored context's text.
func (h *EmailHandler) resolveContext(ctx context.Context, text string, id *int64) (string, error) {
	if strings.TrimSpace(text) != "" || id == nil {
		return text, nil
	}
	if h.contexts == nil {
		return "", apperr.BadRequest("context storage is not configured")
	}

	stored, err := h.contexts.GetByID(ctx, *id)
	if err != nil {
		return "", err
	}
	return stored.ContextText, nil
}

// loadThread fills history, directives and custom prompt from the thread.
// Values already present in the request win.
func (h *EmailHandler) loadThread(ctx context.Context, threadID int64, req *domain.GenerationRequest) (*domain.Thread, error) {
	if h.threads == nil {
		return nil, apperr.BadRequest("thread storage is not configured")
	}

	thread, err := h.threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	messages, err := h.threads.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	req.ThreadHistory = llm.FormatThreadHistory(messages)
	if req.Parameters.ExtraDirectives == nil && len(thread.ExtraDirectives) > 0 {
		req.Parameters.ExtraDirectives = thread.ExtraDirectives
	}
	if req.CustomPrompt == "" {
		req.CustomPrompt = thread.CustomPrompt
	}
	return thread, nil
}

// recordExchange appends the inbound email and the draft to the thread.
// Failures are logged; the draft is still returned.
func (h *EmailHandler) recordExchange(ctx context.Context, threadID int64, req *domain.GenerationRequest, reply *domain.GeneratedReply, took time.Duration) {
	seconds := took.Seconds()

	incoming := &domain.ThreadMessage{
		ThreadID: threadID,
		Type:     domain.MessageIncoming,
		Subject:  req.Subject,
		Body:     req.Body,
	}
	outgoing := &domain.ThreadMessage{
		ThreadID:              threadID,
		Type:                  domain.MessageOutgoing,
		Subject:               reply.Subject,
		Body:                  reply.Body,
		GenerationTimeSeconds: &seconds,
	}
	if s := req.Sender; s != nil {
		outgoing.SenderName = strings.TrimSpace(s.FirstName + " " + s.LastName)
		outgoing.SenderPosition = s.Position
	}

	for _, msg := range []*domain.ThreadMessage{incoming, outgoing} {
		if err := h.threads.AddMessage(ctx, msg); err != nil {
			logger.WithContext(ctx).WithError(err).WithField("thread_id", threadID).Warn("failed to record thread message")
			return
		}
	}
}
