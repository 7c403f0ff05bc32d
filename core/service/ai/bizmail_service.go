package ai

import (
	"context"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/in"
	"bizmail_server/core/service/classification"
	"bizmail_server/core/service/extraction"
)

// Service is the assistant facade used by the HTTP adapter.
type Service struct {
	analyzer   *Analyzer
	generator  *Generator
	recipients *extraction.RecipientNameExtractor
}

var _ in.AssistantService = (*Service)(nil)

func NewService(analyzer *Analyzer, generator *Generator) *Service {
	return &Service{
		analyzer:   analyzer,
		generator:  generator,
		recipients: extraction.NewRecipientNameExtractor(),
	}
}

func (s *Service) AnalyzeEmail(ctx context.Context, email domain.InboundEmail, companyContext string) *domain.DetailedAnalysis {
	return s.analyzer.Analyze(ctx, email, companyContext)
}

func (s *Service) AnalyzeParameters(ctx context.Context, email domain.InboundEmail, companyContext string) domain.StyleParameters {
	return s.analyzer.AnalyzeParameters(ctx, email, companyContext)
}

func (s *Service) GenerateReply(ctx context.Context, req *domain.GenerationRequest) (*domain.GeneratedReply, error) {
	return s.generator.Generate(ctx, req)
}

// CheckRecipient reports the addressee's name, if the email has one.
func (s *Service) CheckRecipient(email domain.InboundEmail) domain.RecipientCheck {
	name, ok := s.recipients.Format(email.Subject, email.Body)
	if !ok {
		return domain.RecipientCheck{}
	}
	return domain.RecipientCheck{HasName: true, RecipientName: &name}
}

func (s *Service) Departments() []in.Department {
	deps := classification.Departments()
	result := make([]in.Department, len(deps))
	for i, d := range deps {
		result[i] = in.Department{Name: d.Name, Mailbox: d.Mailbox}
	}
	return result
}
