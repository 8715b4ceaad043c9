package models

import (
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeHeart MessageType = "heart"
	MessageTypeStar  MessageType = "star"
)

// Message is immutable once stored. ID is the client's idempotency key.
type Message struct {
	ID             string      `gorm:"primaryKey" json:"id"`
	ConversationID string      `gorm:"not null;index:idx_messages_conversation_ts,priority:1" json:"conversationId"`
	Text           string      `json:"text"`
	Sender         string      `gorm:"not null" json:"sender"`
	Type           MessageType `gorm:"column:message_type;default:text" json:"type"`
	Timestamp      time.Time   `gorm:"column:sent_at;index:idx_messages_conversation_ts,priority:2" json:"timestamp"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// MessageEvent is a message frame as it travels over the socket, and the
// body of POST /messages.
type MessageEvent struct {
	Type           MessageType `json:"type,omitempty" validate:"omitempty,oneof=text heart star"`
	ID             string      `json:"id" conform:"trim" validate:"required"`
	ConversationID string      `json:"conversationId,omitempty" conform:"trim"`
	Text           string      `json:"text" validate:"required_if=Type text"`
	Sender         string      `json:"sender" conform:"trim,lower" validate:"required"`
	Timestamp      *time.Time  `json:"timestamp,omitempty"`
}

// Normalize fills the defaults a client may leave out.
func (e *MessageEvent) Normalize(now time.Time) {
	if e.Type == "" {
		e.Type = MessageTypeText
	}
	if e.Timestamp == nil || e.Timestamp.IsZero() {
		t := now.UTC()
		e.Timestamp = &t
	}
}

// ToMessage builds the record to persist for conversationID.
func (e MessageEvent) ToMessage(conversationID string) *Message {
	msg := &Message{
		ID:             e.ID,
		ConversationID: conversationID,
		Text:           e.Text,
		Sender:         e.Sender,
		Type:           e.Type,
	}
	if e.Timestamp != nil {
		msg.Timestamp = e.Timestamp.UTC()
	}
	return msg
}

// MessageEventFrom renders a stored message back into its wire form.
func MessageEventFrom(m *Message) MessageEvent {
	ts := m.Timestamp
	return MessageEvent{
		Type:           m.Type,
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Text:           m.Text,
		Sender:         m.Sender,
		Timestamp:      &ts,
	}
}

// MessagePage is one page of a conversation's history, oldest first.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalCount int64     `json:"totalMessages"`
	HasNext    bool      `json:"hasNext"`
	HasPrev    bool      `json:"hasPrev"`
}

type Pagination struct {
	Page          int   `json:"page"`
	Limit         int   `json:"limit"`
	TotalMessages int64 `json:"totalMessages"`
	TotalPages    int   `json:"totalPages"`
	HasNext       bool  `json:"hasNext"`
	HasPrev       bool  `json:"hasPrev"`
}

type MessageHistoryResponse struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

// Pagination derives the response block for the page.
func (p MessagePage) Pagination() Pagination {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((p.TotalCount + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{
		Page:          p.Page,
		Limit:         p.Limit,
		TotalMessages: p.TotalCount,
		TotalPages:    totalPages,
		HasNext:       p.HasNext,
		HasPrev:       p.HasPrev,
	}
}

// HasNextPage reports whether older messages exist past this page.
func HasNextPage(page, pageSize int, total int64) bool {
	return int64(page)*int64(pageSize) < total
}
