package models

import (
	"sort"
	"strings"
	"time"
)

type ConversationKind string

const (
	ConversationPrivate ConversationKind = "private"
	ConversationGroup   ConversationKind = "group"
)

const DefaultAvatar = "/placeholder-user.jpg"

type Conversation struct {
	ID                   string                    `gorm:"primaryKey" json:"id"`
	DisplayName          string                    `gorm:"not null" json:"displayName"`
	Avatar               string                    `json:"avatar"`
	Participants         []ConversationParticipant `gorm:"foreignKey:ConversationID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ParticipantKey       *string                   `gorm:"uniqueIndex" json:"-"`
	CreatedBy            string                    `gorm:"not null;index" json:"createdBy"`
	Kind                 ConversationKind          `gorm:"not null;default:private" json:"kind"`
	LastMessage          string                    `json:"lastMessage"`
	LastMessageTimestamp time.Time                 `gorm:"index" json:"lastMessageTimestamp"`
	Pinned               bool                      `gorm:"default:false" json:"pinned"`
	UnreadCount          int                       `gorm:"default:0" json:"unreadCount"`
	CreatedAt            time.Time                 `json:"createdAt"`
	UpdatedAt            time.Time                 `json:"updatedAt"`
}

type ConversationParticipant struct {
	ConversationID string `gorm:"primaryKey"`
	Identity       string `gorm:"primaryKey;index"`
}

// ConversationResponse is the JSON view of a conversation with its member list flattened.
type ConversationResponse struct {
	*Conversation
	Participants []string `json:"participants"`
}

// Identities returns the participant identities in stored order.
func (c *Conversation) Identities() []string {
	ids := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.Identity)
	}
	return ids
}

func (c *Conversation) Response() ConversationResponse {
	return ConversationResponse{Conversation: c, Participants: c.Identities()}
}

// PrivateKey is the order-insensitive key of a two-party conversation.
func PrivateKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

type CreateConversationRequest struct {
	Name         string           `json:"name" conform:"trim" binding:"required"`
	Avatar       string           `json:"avatar" conform:"trim"`
	Participants []string         `json:"participants" binding:"required,min=1"`
	CreatedBy    string           `json:"createdBy" conform:"trim,lower" binding:"required"`
	ChatType     ConversationKind `json:"chatType" binding:"omitempty,oneof=private group"`
}

// ConversationUpdate carries the metadata fields a client may edit. Nil means unchanged.
type ConversationUpdate struct {
	DisplayName *string `json:"displayName"`
	Avatar      *string `json:"avatar"`
	Pinned      *bool   `json:"pinned"`
	UnreadCount *int    `json:"unreadCount" binding:"omitempty,min=0"`
}

// Columns maps the set fields to their column names.
func (u ConversationUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.DisplayName != nil {
		cols["display_name"] = *u.DisplayName
	}
	if u.Avatar != nil {
		cols["avatar"] = *u.Avatar
	}
	if u.Pinned != nil {
		cols["pinned"] = *u.Pinned
	}
	if u.UnreadCount != nil {
		cols["unread_count"] = *u.UnreadCount
	}
	return cols
}
