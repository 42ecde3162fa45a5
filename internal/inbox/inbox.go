// Package inbox stores conversations and their messages. A contact has at
// most one conversation per channel; every send and every inbound webhook
// lands in that single thread.
package inbox

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Channels. Voicemail activity is threaded into the sms conversation so
// the phone history for a contact reads as one timeline.
const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Conversation is the single thread for a (contact, channel) pair.
type Conversation struct {
	ID            string    `json:"id"`
	ContactID     string    `json:"contactId"`
	Channel       string    `json:"channel"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// Message is one append-only entry in a conversation.
type Message struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversationId"`
	Direction         string    `json:"direction"`
	Text              string    `json:"text"`
	Subject           string    `json:"subject,omitempty"`
	Provider          string    `json:"provider,omitempty"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Repository stores conversations and messages.
//
// FindOrCreateConversation is idempotent: concurrent callers for the same
// (contact, channel) pair converge on one conversation.
type Repository interface {
	FindOrCreateConversation(ctx context.Context, contactID, channel string) (Conversation, error)
	ListConversationsByContact(ctx context.Context, contactID string) ([]Conversation, error)
	AppendMessage(ctx context.Context, m Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	ListMessagesSince(ctx context.Context, since time.Time) ([]Message, error)
}

func validConvArgs(contactID, channel string) bool {
	return contactID != "" && (channel == ChannelSMS || channel == ChannelEmail)
}
