package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talabli/talabli-backend/internal/models"
)

func customerMsg(content string) MessagePayload {
	return MessagePayload{From: testPhone, To: "+966500000000", Content: content, FromCustomer: true}
}

func botMsg(content string) MessagePayload {
	return MessagePayload{From: "+966500000000", To: testPhone, Content: content, FromCustomer: false}
}

func TestGetOrCreateConversation(t *testing.T) {
	s := NewConversationStore()

	conv := s.GetOrCreateConversation(testPhone, "Sara")
	assert.Equal(t, testPhone, conv.ID)
	assert.Equal(t, "Sara", conv.Name)
	assert.Equal(t, models.ConversationActive, conv.Status)
	assert.True(t, conv.BotActive)
	assert.Equal(t, 0, conv.UnreadCount)

	// Same normalized phone, different representation: same conversation.
	again := s.GetOrCreateConversation("whatsapp:00966512345678", "")
	assert.Equal(t, conv.ID, again.ID)
	assert.Len(t, s.ListConversations(), 1)
}

func TestGetOrCreateUpdatesName(t *testing.T) {
	s := NewConversationStore()
	s.GetOrCreateConversation(testPhone, "Sara")

	notified := 0
	s.OnConversationUpdated(func(models.Conversation) { notified++ })

	conv := s.GetOrCreateConversation(testPhone, "Sara A.")
	assert.Equal(t, "Sara A.", conv.Name)
	assert.Equal(t, 1, notified)

	// Same name again: no change, no notification.
	s.GetOrCreateConversation(testPhone, "Sara A.")
	assert.Equal(t, 1, notified)
}

func TestUnreadCountRules(t *testing.T) {
	s := NewConversationStore()

	s.AppendMessage(testPhone, customerMsg("hi"))
	s.AppendMessage(testPhone, customerMsg("menu please"))
	conv := s.GetConversation(testPhone)
	require.NotNil(t, conv)
	assert.Equal(t, 2, conv.UnreadCount)

	// Any bot/agent message resets unread, regardless of prior value.
	s.AppendMessage(testPhone, botMsg("here is the menu"))
	assert.Equal(t, 0, s.GetConversation(testPhone).UnreadCount)

	s.AppendMessage(testPhone, customerMsg("thanks"))
	assert.Equal(t, 1, s.GetConversation(testPhone).UnreadCount)

	s.MarkConversationRead(testPhone)
	assert.Equal(t, 0, s.GetConversation(testPhone).UnreadCount)
}

func TestAppendMessageCreatesConversation(t *testing.T) {
	s := NewConversationStore()

	msg := s.AppendMessage(testPhone, customerMsg("hello"))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, testPhone, msg.ConversationID)
	assert.Equal(t, models.MessageTypeText, msg.Type)

	conv := s.GetConversation(testPhone)
	require.NotNil(t, conv)
	require.NotNil(t, conv.LastMessageAt)
	assert.True(t, conv.LastMessageAt.Equal(msg.Timestamp))
}

func TestAppendMessageCallerTimestamp(t *testing.T) {
	s := NewConversationStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	payload := customerMsg("hello")
	payload.Timestamp = &ts
	msg := s.AppendMessage(testPhone, payload)
	assert.True(t, msg.Timestamp.Equal(ts))
}

func TestMessagesOrderedByAppend(t *testing.T) {
	s := NewConversationStore()
	s.AppendMessage(testPhone, customerMsg("one"))
	s.AppendMessage(testPhone, botMsg("two"))
	s.AppendMessage(testPhone, customerMsg("three"))

	msgs := s.GetMessages(testPhone)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "three", msgs[2].Content)

	assert.Empty(t, s.GetMessages("+966599999999"))
}

func TestListConversationsSorted(t *testing.T) {
	s := NewConversationStore()

	s.GetOrCreateConversation("+966511111111", "") // never messaged
	s.AppendMessage("+966522222222", customerMsg("old"))
	time.Sleep(2 * time.Millisecond)
	s.AppendMessage("+966533333333", customerMsg("new"))

	list := s.ListConversations()
	require.Len(t, list, 3)
	assert.Equal(t, "+966533333333", list[0].ID)
	assert.Equal(t, "+966522222222", list[1].ID)
	// Undated conversations sort as earliest.
	assert.Equal(t, "+966511111111", list[2].ID)
}

func TestSetConversationDataChangeDetection(t *testing.T) {
	s := NewConversationStore()
	s.GetOrCreateConversation(testPhone, "Sara")

	notified := 0
	s.OnConversationUpdated(func(models.Conversation) { notified++ })

	// No actual change: no notification.
	s.SetConversationData(testPhone, models.ConversationUpdate{Status: models.StringPtr(models.ConversationActive)})
	assert.Equal(t, 0, notified)

	// Unknown conversation: silent no-op.
	s.SetConversationData("+966599999999", models.ConversationUpdate{Status: models.StringPtr(models.ConversationClosed)})
	assert.Equal(t, 0, notified)

	before := s.GetConversation(testPhone).UpdatedAt
	s.SetConversationData(testPhone, models.ConversationUpdate{
		Status:    models.StringPtr(models.ConversationClosed),
		BotActive: models.BoolPtr(false),
	})
	assert.Equal(t, 1, notified)

	conv := s.GetConversation(testPhone)
	assert.Equal(t, models.ConversationClosed, conv.Status)
	assert.False(t, conv.BotActive)
	assert.False(t, conv.UpdatedAt.Before(before))
}

func TestListenerUnsubscribe(t *testing.T) {
	s := NewConversationStore()

	got := 0
	unsubscribe := s.OnConversationUpdated(func(models.Conversation) { got++ })

	s.AppendMessage(testPhone, customerMsg("one"))
	assert.Equal(t, 1, got)

	unsubscribe()
	s.AppendMessage(testPhone, customerMsg("two"))
	assert.Equal(t, 1, got)
}

func TestMessageListenerReceivesAppends(t *testing.T) {
	s := NewConversationStore()

	var contents []string
	unsubscribe := s.OnMessageAppended(func(m models.Message) { contents = append(contents, m.Content) })
	defer unsubscribe()

	s.AppendMessage(testPhone, customerMsg("hello"))
	require.Len(t, contents, 1)
	assert.Equal(t, "hello", contents[0])
}

func TestPanickingListenerIsolated(t *testing.T) {
	s := NewConversationStore()

	second := 0
	s.OnConversationUpdated(func(models.Conversation) { panic("boom") })
	s.OnConversationUpdated(func(models.Conversation) { second++ })

	// Must not panic out, must still run the second listener, and the
	// mutation itself must be committed.
	s.AppendMessage(testPhone, customerMsg("hi"))
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, s.GetConversation(testPhone).UnreadCount)
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	s := NewConversationStore()

	var order []int
	s.OnMessageAppended(func(models.Message) { order = append(order, 1) })
	s.OnMessageAppended(func(models.Message) { order = append(order, 2) })
	s.OnMessageAppended(func(models.Message) { order = append(order, 3) })

	s.AppendMessage(testPhone, customerMsg("hi"))
	assert.Equal(t, []int{1, 2, 3}, order)
}
