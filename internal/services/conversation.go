package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/utils"
)

// MessageListener receives every message appended to any conversation.
type MessageListener func(models.Message)

// ConversationListener receives every observable conversation mutation.
type ConversationListener func(models.Conversation)

// MessagePayload is the caller-supplied part of a message; the store
// assigns the id and, when Timestamp is nil, the time.
type MessagePayload struct {
	From         string
	To           string
	Type         string
	Content      string
	MediaURL     string
	Timestamp    *time.Time
	FromCustomer bool
}

type listenerEntry[T any] struct {
	id int
	fn T
}

// ConversationStore keeps every chat thread and its ordered message log in
// memory, keyed by normalized phone number, and notifies subscribers
// synchronously on every mutation. Listeners run on the calling goroutine
// and are isolated: a panicking listener is logged and cannot abort the
// mutation or starve later listeners.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message

	listenerMu     sync.Mutex
	nextListenerID int
	msgListeners   []listenerEntry[MessageListener]
	convListeners  []listenerEntry[ConversationListener]
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
	}
}

// GetOrCreateConversation returns the conversation for the phone number,
// creating it if needed. A new, different, non-empty name updates the
// existing record. Fires conversation-updated on create or name change.
func (s *ConversationStore) GetOrCreateConversation(phone, name string) models.Conversation {
	key := utils.NormalizePhone(phone)

	s.mu.Lock()
	conv, exists := s.conversations[key]
	if exists {
		if name != "" && name != conv.Name {
			conv.Name = name
			touch(conv)
		} else {
			out := *conv
			s.mu.Unlock()
			return out
		}
	} else {
		now := time.Now()
		conv = &models.Conversation{
			ID:          key,
			Phone:       key,
			Name:        name,
			Status:      models.ConversationActive,
			UnreadCount: 0,
			BotActive:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.conversations[key] = conv
	}
	out := *conv
	s.mu.Unlock()

	s.notifyConversation(out)
	return out
}

// GetConversation returns the conversation, or nil if it does not exist.
func (s *ConversationStore) GetConversation(id string) *models.Conversation {
	key := utils.NormalizePhone(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.conversations[key]
	if !exists {
		return nil
	}
	out := *conv
	return &out
}

// ListConversations returns all conversations sorted by last-message time,
// newest first. Conversations that never had a message sort as oldest.
func (s *ConversationStore) ListConversations() []models.Conversation {
	s.mu.RLock()
	out := make([]models.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return lastMessageTime(out[i]).After(lastMessageTime(out[j]))
	})
	return out
}

func lastMessageTime(c models.Conversation) time.Time {
	if c.LastMessageAt == nil {
		return time.Time{}
	}
	return *c.LastMessageAt
}

// SetConversationData shallow-merges the defined fields into the
// conversation. Touches updatedAt and notifies only when at least one
// field actually changed value; silently no-ops on unknown ids.
func (s *ConversationStore) SetConversationData(id string, upd models.ConversationUpdate) {
	key := utils.NormalizePhone(id)

	s.mu.Lock()
	conv, exists := s.conversations[key]
	if !exists {
		s.mu.Unlock()
		return
	}

	changed := false
	if upd.Name != nil && *upd.Name != conv.Name {
		conv.Name = *upd.Name
		changed = true
	}
	if upd.Status != nil && *upd.Status != conv.Status {
		conv.Status = *upd.Status
		changed = true
	}
	if upd.UnreadCount != nil && *upd.UnreadCount != conv.UnreadCount {
		conv.UnreadCount = *upd.UnreadCount
		changed = true
	}
	if upd.BotActive != nil && *upd.BotActive != conv.BotActive {
		conv.BotActive = *upd.BotActive
		changed = true
	}
	if upd.LastMessage != nil && (conv.LastMessageAt == nil || !upd.LastMessage.Equal(*conv.LastMessageAt)) {
		t := *upd.LastMessage
		conv.LastMessageAt = &t
		changed = true
	}

	if !changed {
		s.mu.Unlock()
		return
	}
	touch(conv)
	out := *conv
	s.mu.Unlock()

	s.notifyConversation(out)
}

// MarkConversationRead forces the unread count to zero.
func (s *ConversationStore) MarkConversationRead(id string) {
	zero := 0
	s.SetConversationData(id, models.ConversationUpdate{UnreadCount: &zero})
}

// GetMessages returns the full ordered message log for a conversation,
// empty if none exists.
func (s *ConversationStore) GetMessages(id string) []models.Message {
	key := utils.NormalizePhone(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[key]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// AppendMessage appends a message to the conversation's log, creating the
// conversation if absent. A customer message bumps the unread count; any
// bot or agent message resets it to zero, since replying implies the
// thread was seen. Fires message-appended then conversation-updated.
func (s *ConversationStore) AppendMessage(conversationID string, payload MessagePayload) models.Message {
	key := utils.NormalizePhone(conversationID)

	ts := time.Now()
	if payload.Timestamp != nil {
		ts = *payload.Timestamp
	}
	msgType := payload.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	msg := models.Message{
		ID:             utils.GenerateMessageID(),
		ConversationID: key,
		From:           payload.From,
		To:             payload.To,
		Type:           msgType,
		Content:        payload.Content,
		MediaURL:       payload.MediaURL,
		Timestamp:      ts,
		FromCustomer:   payload.FromCustomer,
	}

	s.mu.Lock()
	conv, exists := s.conversations[key]
	if !exists {
		now := time.Now()
		conv = &models.Conversation{
			ID:        key,
			Phone:     key,
			Status:    models.ConversationActive,
			BotActive: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.conversations[key] = conv
	}

	s.messages[key] = append(s.messages[key], msg)
	conv.LastMessageAt = &msg.Timestamp
	if msg.FromCustomer {
		conv.UnreadCount++
	} else {
		conv.UnreadCount = 0
	}
	touch(conv)
	convOut := *conv
	s.mu.Unlock()

	s.notifyMessage(msg)
	s.notifyConversation(convOut)
	return msg
}

// OnMessageAppended registers a listener for future appended messages and
// returns its unregister function. No replay of past events.
func (s *ConversationStore) OnMessageAppended(fn MessageListener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	s.nextListenerID++
	id := s.nextListenerID
	s.msgListeners = append(s.msgListeners, listenerEntry[MessageListener]{id: id, fn: fn})

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		for i, e := range s.msgListeners {
			if e.id == id {
				s.msgListeners = append(s.msgListeners[:i], s.msgListeners[i+1:]...)
				return
			}
		}
	}
}

// OnConversationUpdated registers a listener for future conversation
// mutations and returns its unregister function.
func (s *ConversationStore) OnConversationUpdated(fn ConversationListener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	s.nextListenerID++
	id := s.nextListenerID
	s.convListeners = append(s.convListeners, listenerEntry[ConversationListener]{id: id, fn: fn})

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		for i, e := range s.convListeners {
			if e.id == id {
				s.convListeners = append(s.convListeners[:i], s.convListeners[i+1:]...)
				return
			}
		}
	}
}

func (s *ConversationStore) notifyMessage(msg models.Message) {
	s.listenerMu.Lock()
	listeners := make([]listenerEntry[MessageListener], len(s.msgListeners))
	copy(listeners, s.msgListeners)
	s.listenerMu.Unlock()

	for _, e := range listeners {
		safeNotify(func() { e.fn(msg) })
	}
}

func (s *ConversationStore) notifyConversation(conv models.Conversation) {
	s.listenerMu.Lock()
	listeners := make([]listenerEntry[ConversationListener], len(s.convListeners))
	copy(listeners, s.convListeners)
	s.listenerMu.Unlock()

	for _, e := range listeners {
		safeNotify(func() { e.fn(conv) })
	}
}

// safeNotify isolates listener failures from the mutation that triggered
// them.
func safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  Conversation listener panicked: %v", r)
		}
	}()
	fn()
}

// touch advances updatedAt, never letting it go backward.
func touch(c *models.Conversation) {
	now := time.Now()
	if now.Before(c.UpdatedAt) {
		now = c.UpdatedAt
	}
	c.UpdatedAt = now
}
