package inbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is the in-memory Repository. One mutex guards both maps, so
// find-or-create is naturally race-free.
type MemoryRepo struct {
	mu            sync.Mutex
	conversations map[string]Conversation            // by id
	byPair        map[[2]string]string               // (contactID, channel) -> conversation id
	messages      map[string][]Message               // by conversation id
	clock         func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		conversations: make(map[string]Conversation),
		byPair:        make(map[[2]string]string),
		messages:      make(map[string][]Message),
		clock:         time.Now,
	}
}

func (r *MemoryRepo) FindOrCreateConversation(ctx context.Context, contactID, channel string) (Conversation, error) {
	_ = ctx
	if !validConvArgs(contactID, channel) {
		return Conversation{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]string{contactID, channel}
	if id, ok := r.byPair[key]; ok {
		return r.conversations[id], nil
	}
	now := r.clock().UTC()
	conv := Conversation{
		ID:        uuid.NewString(),
		ContactID: contactID,
		Channel:   channel,
		CreatedAt: now,
	}
	r.conversations[conv.ID] = conv
	r.byPair[key] = conv.ID
	return conv, nil
}

// EnsureConversation satisfies the contact package's ensurer interface.
func (r *MemoryRepo) EnsureConversation(ctx context.Context, contactID, channel string) error {
	_, err := r.FindOrCreateConversation(ctx, contactID, channel)
	return err
}

func (r *MemoryRepo) ListConversationsByContact(ctx context.Context, contactID string) ([]Conversation, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Conversation{}
	for _, c := range r.conversations {
		if c.ContactID == contactID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m Message) error {
	_ = ctx
	if m.ConversationID == "" || (m.Direction != DirectionIn && m.Direction != DirectionOut) {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[m.ConversationID]
	if !ok {
		return ErrNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.clock().UTC()
	}
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)

	conv.LastMessageAt = m.CreatedAt
	r.conversations[conv.ID] = conv
	return nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	out := append([]Message(nil), r.messages[conversationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) ListMessagesSince(ctx context.Context, since time.Time) ([]Message, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Message{}
	for _, ms := range r.messages {
		for _, m := range ms {
			if !m.CreatedAt.Before(since) {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
