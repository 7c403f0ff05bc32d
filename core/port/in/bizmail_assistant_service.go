package in

import (
	"context"

	"bizmail_server/core/domain"
)

// Department is a routing target exposed to clients.
type Department struct {
	Name    string `json:"name"`
	Mailbox string `json:"mailbox"`
}

type AssistantService interface {
	// AnalyzeEmail never fails; it degrades to keyword heuristics.
	AnalyzeEmail(ctx context.Context, email domain.InboundEmail, companyContext string) *domain.DetailedAnalysis
	// AnalyzeParameters falls back to basic parameters on any failure.
	AnalyzeParameters(ctx context.Context, email domain.InboundEmail, companyContext string) domain.StyleParameters

	// GenerateReply fails only with a gateway error or invalid input.
	GenerateReply(ctx context.Context, req *domain.GenerationRequest) (*domain.GeneratedReply, error)

	CheckRecipient(email domain.InboundEmail) domain.RecipientCheck
	Departments() []Department
}
