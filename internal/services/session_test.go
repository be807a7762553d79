package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talabli/talabli-backend/internal/models"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionStore(rdb), mr
}

func sampleSession() models.ConversationSession {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	return models.ConversationSession{
		SelectedBranch: models.StringPtr("riyadh-main"),
		MerchantID:     models.StringPtr("talabli-demo"),
		OrderType:      models.StringPtr(models.OrderTypeDelivery),
		Items: []models.SessionItem{{
			ProductID: "itm-001",
			Name:      "Classic Burger",
			Quantity:  2,
			UnitPrice: 18,
			Currency:  "SAR",
			Addons:    []models.Addon{{ID: "add-cheese", Name: "Extra Cheese", Price: 3, Quantity: 1}},
		}},
		Total:             models.Float64Ptr(41),
		Currency:          models.StringPtr("SAR"),
		CustomerPhone:     models.StringPtr(testPhone),
		LastUserMessageAt: &at,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	require.Equal(t, SessionOK, s.SetSession(ctx, testPhone, sampleSession(), 0))

	got, status := s.GetSession(ctx, testPhone)
	require.Equal(t, SessionOK, status)
	require.NotNil(t, got)

	want := sampleSession()
	assert.Equal(t, *want.SelectedBranch, *got.SelectedBranch)
	assert.Equal(t, *want.MerchantID, *got.MerchantID)
	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, *want.Total, *got.Total)
	assert.True(t, got.LastUserMessageAt.Equal(*want.LastUserMessageAt))
	assert.Nil(t, got.PaymentMethod) // never set, stays unset
}

func TestSessionKeyNamespacedAndNormalized(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	s.SetSession(ctx, "whatsapp:00966512345678", sampleSession(), 0)
	assert.True(t, mr.Exists("conversation:+966512345678:session"))

	got, status := s.GetSession(ctx, "0512345678")
	assert.Equal(t, SessionOK, status)
	assert.NotNil(t, got)
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	s.SetSession(ctx, testPhone, sampleSession(), 30*time.Minute)

	mr.FastForward(29 * time.Minute)
	_, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionOK, status)

	mr.FastForward(2 * time.Minute)
	got, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionMiss, status)
	assert.Nil(t, got)
}

func TestUpdateSessionPreservesUnmentionedFields(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	s.SetSession(ctx, testPhone, sampleSession(), 0)

	status := s.UpdateSession(ctx, testPhone, models.ConversationSession{
		PaymentMethod: models.StringPtr(models.PaymentCard),
	}, 0)
	require.Equal(t, SessionOK, status)

	got, _ := s.GetSession(ctx, testPhone)
	require.NotNil(t, got)
	require.NotNil(t, got.PaymentMethod)
	assert.Equal(t, models.PaymentCard, *got.PaymentMethod)
	// Fields not mentioned in the partial survive.
	require.NotNil(t, got.SelectedBranch)
	assert.Equal(t, "riyadh-main", *got.SelectedBranch)
	assert.Len(t, got.Items, 1)
}

func TestUpdateSessionRefreshesTTL(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	s.SetSession(ctx, testPhone, sampleSession(), time.Hour)
	mr.FastForward(50 * time.Minute)

	s.UpdateSession(ctx, testPhone, models.ConversationSession{
		PaymentMethod: models.StringPtr(models.PaymentCash),
	}, time.Hour)

	// Without the refresh this would have expired 10 minutes later.
	mr.FastForward(30 * time.Minute)
	_, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionOK, status)
}

func TestUpdateSessionOnMissingCreates(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	status := s.UpdateSession(ctx, testPhone, models.ConversationSession{
		OrderType: models.StringPtr(models.OrderTypePickup),
	}, 0)
	require.Equal(t, SessionOK, status)

	got, _ := s.GetSession(ctx, testPhone)
	require.NotNil(t, got)
	assert.Equal(t, models.OrderTypePickup, *got.OrderType)
}

func TestClearSession(t *testing.T) {
	s, _ := newTestSessionStore(t)
	ctx := context.Background()

	s.SetSession(ctx, testPhone, sampleSession(), 0)
	assert.Equal(t, SessionOK, s.ClearSession(ctx, testPhone))

	_, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionMiss, status)
}

func TestMalformedPayloadTreatedAsMiss(t *testing.T) {
	s, mr := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("conversation:"+testPhone+":session", "{not json"))

	got, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionMiss, status)
	assert.Nil(t, got)
}

func TestUnavailableBackingStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewSessionStore(rdb)
	ctx := context.Background()

	mr.Close()

	assert.False(t, s.Ready(ctx))
	got, status := s.GetSession(ctx, testPhone)
	assert.Nil(t, got)
	assert.Equal(t, SessionUnavailable, status)
	assert.Equal(t, SessionUnavailable, s.SetSession(ctx, testPhone, sampleSession(), 0))
	assert.Equal(t, SessionUnavailable, s.UpdateSession(ctx, testPhone, models.ConversationSession{}, 0))
	assert.Equal(t, SessionUnavailable, s.ClearSession(ctx, testPhone))
}

func TestNilClientUnavailable(t *testing.T) {
	s := NewSessionStore(nil)
	ctx := context.Background()

	assert.False(t, s.Ready(ctx))
	_, status := s.GetSession(ctx, testPhone)
	assert.Equal(t, SessionUnavailable, status)
}
