package domain

import (
	"strings"

	"bizmail_server/pkg/apperr"
)

// InboundEmail is the message a reply is drafted for.
type InboundEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate rejects blank subject or body.
func (e InboundEmail) Validate() error {
	if strings.TrimSpace(e.Subject) == "" {
		return apperr.MissingField("subject")
	}
	if strings.TrimSpace(e.Body) == "" {
		return apperr.MissingField("body")
	}
	return nil
}

// SenderIdentity holds the signer's details. Any field may be empty.
type SenderIdentity struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	MiddleName  string `json:"middle_name,omitempty"`
	Position    string `json:"position,omitempty"`
	PhoneWork   string `json:"phone_work,omitempty"`
	PhoneMobile string `json:"phone_mobile,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`
	Hotline     string `json:"hotline,omitempty"`
	Website     string `json:"website,omitempty"`
}

// HasSignature reports whether enough is known to assemble a signature block.
func (s *SenderIdentity) HasSignature() bool {
	if s == nil {
		return false
	}
	return s.LastName != "" || s.FirstName != "" || s.Position != "" ||
		s.Email != "" || s.PhoneWork != "" || s.PhoneMobile != ""
}

// HasAny reports whether any identity field is set.
func (s *SenderIdentity) HasAny() bool {
	if s == nil {
		return false
	}
	return s.HasSignature() || s.MiddleName != "" || s.Address != "" || s.Hotline != "" || s.Website != ""
}

// GenerationRequest is everything needed to draft one reply.
type GenerationRequest struct {
	Subject        string          `json:"subject"`
	Body           string          `json:"body"`
	Context        string          `json:"context"`
	Parameters     StyleParameters `json:"parameters"`
	Sender         *SenderIdentity `json:"sender,omitempty"`
	CustomPrompt   string          `json:"custom_prompt,omitempty"`
	DepartmentHint string          `json:"department_hint,omitempty"`
	ThreadHistory  string          `json:"thread_history,omitempty"`
	RecipientName  string          `json:"recipient_name,omitempty"`
}

// Validate checks the inbound email and style parameters.
func (r *GenerationRequest) Validate() error {
	if err := (InboundEmail{Subject: r.Subject, Body: r.Body}).Validate(); err != nil {
		return err
	}
	return r.Parameters.Validate()
}

// GeneratedReply is the normalized draft.
type GeneratedReply struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
