package domain

import (
	"time"
)

// MessageType marks a thread message as received or sent.
type MessageType string

const (
	MessageIncoming MessageType = "incoming"
	MessageOutgoing MessageType = "outgoing"
)

// ThreadMessage is one letter in a conversation.
type ThreadMessage struct {
	ID                    int64       `json:"id"`
	ThreadID              int64       `json:"thread_id"`
	Type                  MessageType `json:"message_type"`
	Subject               string      `json:"subject"`
	Body                  string      `json:"body"`
	SenderName            string      `json:"sender_name,omitempty"`
	SenderPosition        string      `json:"sender_position,omitempty"`
	GenerationTimeSeconds *float64    `json:"generation_time_seconds,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
}

// Thread is a conversation sharing context and directives.
type Thread struct {
	ID               int64           `json:"id"`
	Subject          string          `json:"subject"`
	CompanyContextID *int64          `json:"company_context_id,omitempty"`
	ExtraDirectives  []string        `json:"extra_directives,omitempty"`
	CustomPrompt     string          `json:"custom_prompt,omitempty"`
	MessageCount     int             `json:"message_count"`
	Messages         []ThreadMessage `json:"messages,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CompanyContext is reusable corporate boilerplate.
type CompanyContext struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ContextText string    `json:"context_text"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
