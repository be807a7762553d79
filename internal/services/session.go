package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/utils"
)

// SessionTTL is the default expiry window for a persisted conversation
// session, refreshed on every write.
const SessionTTL = 2 * time.Hour

// SessionStatus tells callers why a session operation produced no value.
// Unavailable and Miss collapse to the same caller behavior (start the
// flow over), but tests and logs can tell them apart.
type SessionStatus int

const (
	SessionOK SessionStatus = iota
	SessionMiss
	SessionUnavailable
)

// SessionStore mirrors flow-relevant conversation state into Redis with a
// TTL. It is a best-effort recovery aid: when Redis is down or the payload
// is malformed, every operation degrades to a cache miss instead of an
// error, and the in-memory stores remain authoritative.
type SessionStore struct {
	rdb *redis.Client
}

// NewSessionStore creates a session store over the given Redis client.
// A nil client yields a store that reports unavailable for everything.
func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// Ready reports whether the backing Redis is reachable. Never raises.
func (s *SessionStore) Ready(ctx context.Context) bool {
	if s.rdb == nil {
		return false
	}
	return s.rdb.Ping(ctx).Err() == nil
}

func sessionKey(phone string) string {
	return fmt.Sprintf("conversation:%s:session", utils.NormalizePhone(phone))
}

// GetSession fetches the persisted session for the phone number. Malformed
// payloads are logged and treated as absent.
func (s *SessionStore) GetSession(ctx context.Context, phone string) (*models.ConversationSession, SessionStatus) {
	if !s.Ready(ctx) {
		return nil, SessionUnavailable
	}

	raw, err := s.rdb.Get(ctx, sessionKey(phone)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, SessionMiss
	}
	if err != nil {
		log.Printf("⚠️  Session read failed for %s: %v", phone, err)
		return nil, SessionUnavailable
	}

	var session models.ConversationSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.Printf("⚠️  Discarding malformed session payload for %s: %v", phone, err)
		return nil, SessionMiss
	}
	return &session, SessionOK
}

// SetSession stores the session with the given TTL (SessionTTL when zero),
// resetting the expiry window.
func (s *SessionStore) SetSession(ctx context.Context, phone string, session models.ConversationSession, ttl time.Duration) SessionStatus {
	if !s.Ready(ctx) {
		return SessionUnavailable
	}
	if ttl <= 0 {
		ttl = SessionTTL
	}

	raw, err := json.Marshal(session)
	if err != nil {
		log.Printf("⚠️  Session marshal failed for %s: %v", phone, err)
		return SessionUnavailable
	}
	if err := s.rdb.Set(ctx, sessionKey(phone), raw, ttl).Err(); err != nil {
		log.Printf("⚠️  Session write failed for %s: %v", phone, err)
		return SessionUnavailable
	}
	return SessionOK
}

// UpdateSession reads the current session (empty if absent), shallow-merges
// the partial fields into it and writes the result back with a refreshed
// TTL. This is read-modify-write, not an atomic patch: concurrent updates
// for the same phone can lose fields and must be serialized by the caller.
func (s *SessionStore) UpdateSession(ctx context.Context, phone string, partial models.ConversationSession, ttl time.Duration) SessionStatus {
	if !s.Ready(ctx) {
		return SessionUnavailable
	}

	current, status := s.GetSession(ctx, phone)
	if status == SessionUnavailable {
		return SessionUnavailable
	}
	if current == nil {
		current = &models.ConversationSession{}
	}
	current.Merge(partial)

	return s.SetSession(ctx, phone, *current, ttl)
}

// ClearSession deletes the persisted session.
func (s *SessionStore) ClearSession(ctx context.Context, phone string) SessionStatus {
	if !s.Ready(ctx) {
		return SessionUnavailable
	}
	if err := s.rdb.Del(ctx, sessionKey(phone)).Err(); err != nil {
		log.Printf("⚠️  Session delete failed for %s: %v", phone, err)
		return SessionUnavailable
	}
	return SessionOK
}
