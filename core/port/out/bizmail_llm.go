package out

import (
	"context"
)

// Role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one chat message sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LLMGateway sends prompts to a hosted model.
type LLMGateway interface {
	// Complete returns the model's free-text reply.
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
	// CompleteStructured asks for a JSON-only reply.
	CompleteStructured(ctx context.Context, messages []Message, temperature float64) (string, error)
}
