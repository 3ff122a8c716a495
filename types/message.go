// Package types provides core types used across the botflow engine.
// This package has ZERO dependencies on other botflow packages to avoid circular imports.
// All other packages should import types from here.
package types

import "time"

// ChatType represents the kind of conversation a message belongs to.
type ChatType string

const (
	// ChatTypeDirect is a one-on-one conversation with the bot.
	ChatTypeDirect ChatType = "c2c"
	// ChatTypeGroup is a group conversation.
	ChatTypeGroup ChatType = "group"
)

// Sender identifies the originator of an inbound message.
type Sender struct {
	// UserID is the platform-level user identifier.
	UserID string `json:"user_id"`
	// GroupID is the group identifier, empty for direct chats.
	GroupID string `json:"group_id,omitempty"`
	// DisplayName is the human-readable name, if the platform provides one.
	DisplayName string `json:"display_name,omitempty"`
	// ChatType distinguishes direct and group conversations.
	ChatType ChatType `json:"chat_type"`
	// Metadata carries platform-specific sender attributes (e.g. tenant_id).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Message represents an inbound conversational event handed to the dispatcher.
type Message struct {
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewMessage creates a message with the given sender and content.
func NewMessage(sender Sender, content string) *Message {
	return &Message{
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewDirectMessage creates a direct-chat message from the given user.
func NewDirectMessage(userID, content string) *Message {
	return NewMessage(Sender{UserID: userID, ChatType: ChatTypeDirect}, content)
}

// NewGroupMessage creates a group-chat message from the given user and group.
func NewGroupMessage(userID, groupID, content string) *Message {
	return NewMessage(Sender{UserID: userID, GroupID: groupID, ChatType: ChatTypeGroup}, content)
}

// TenantID returns the tenant identifier embedded in the sender metadata,
// or an empty string when the platform did not resolve one.
func (m *Message) TenantID() string {
	if m == nil || m.Sender.Metadata == nil {
		return ""
	}
	return m.Sender.Metadata["tenant_id"]
}
