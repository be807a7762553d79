package services

import (
	"sync"

	"github.com/talabli/talabli-backend/internal/utils"
)

// BotFlags holds the process-wide toggles: whether the bot replies at all,
// and which phone numbers already received the welcome message.
type BotFlags struct {
	mu       sync.RWMutex
	enabled  bool
	welcomed map[string]bool
}

// NewBotFlags creates the flag tracker with the bot enabled.
func NewBotFlags() *BotFlags {
	return &BotFlags{
		enabled:  true,
		welcomed: make(map[string]bool),
	}
}

// Enabled reports whether the bot should respond to inbound messages.
func (b *BotFlags) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

// SetEnabled flips the global bot toggle.
func (b *BotFlags) SetEnabled(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = on
}

// Welcomed reports whether the phone number already got the welcome message.
func (b *BotFlags) Welcomed(phone string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.welcomed[utils.NormalizePhone(phone)]
}

// MarkWelcomed records that the phone number received the welcome message.
func (b *BotFlags) MarkWelcomed(phone string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.welcomed[utils.NormalizePhone(phone)] = true
}

// WelcomedCount returns how many customers have been welcomed.
func (b *BotFlags) WelcomedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.welcomed)
}
