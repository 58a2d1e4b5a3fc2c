// internal/models/conversation.go
package models

import "time"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Assistant types resolved for a query.
const (
	AssistantEmployee = "employee"
	AssistantTalent   = "talent"
	AssistantUnified  = "unified"
)

// Message is a single turn in a conversation.
type Message struct {
	ID            string    `json:"id,omitempty"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	AssistantType string    `json:"assistantType,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// ConversationState is the hosting application's view of a session. The
// engine only reads a snapshot; persistence is owned by the caller.
type ConversationState struct {
	Messages            []Message         `json:"messages"`
	ActiveAssistantType string            `json:"activeAssistantType,omitempty"`
	Preferences         map[string]string `json:"preferences,omitempty"`
	ReferencedData      []string          `json:"referencedData,omitempty"`
}

// ContextMetadata is derived from a bounded context every turn. It is never
// persisted independent of ConversationState.
type ContextMetadata struct {
	TotalTokens  int       `json:"totalTokens"`
	MessageCount int       `json:"messageCount"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
