package models

import "time"

// Conversation statuses
const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Message types supported over WhatsApp
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeDocument    = "document"
	MessageTypeAudio       = "audio"
	MessageTypeVideo       = "video"
	MessageTypeTemplate    = "template"
	MessageTypeInteractive = "interactive"
)

// Conversation is a per-customer chat thread. The ID is the normalized
// phone number, so one customer can never own two threads.
type Conversation struct {
	ID            string     `json:"id"`
	Phone         string     `json:"phone"`
	Name          string     `json:"name,omitempty"`
	Status        string     `json:"status"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
	BotActive     bool       `json:"bot_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ConversationUpdate carries a partial update for a conversation.
// Nil fields are left untouched.
type ConversationUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Status      *string    `json:"status,omitempty"`
	UnreadCount *int       `json:"unread_count,omitempty"`
	BotActive   *bool      `json:"bot_active,omitempty"`
	LastMessage *time.Time `json:"last_message_at,omitempty"`
}

// Message is a single entry in a conversation's log. Immutable once appended.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	MediaURL       string    `json:"media_url,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	FromCustomer   bool      `json:"from_customer"`
}
