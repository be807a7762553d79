package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotToggle(t *testing.T) {
	f := NewBotFlags()
	assert.True(t, f.Enabled())

	f.SetEnabled(false)
	assert.False(t, f.Enabled())

	f.SetEnabled(true)
	assert.True(t, f.Enabled())
}

func TestWelcomeTracker(t *testing.T) {
	f := NewBotFlags()
	assert.False(t, f.Welcomed(testPhone))

	f.MarkWelcomed("whatsapp:00966512345678")
	// Normalization applies to the tracker too.
	assert.True(t, f.Welcomed(testPhone))
	assert.True(t, f.Welcomed("0512345678"))
	assert.Equal(t, 1, f.WelcomedCount())

	f.MarkWelcomed(testPhone) // idempotent
	assert.Equal(t, 1, f.WelcomedCount())
}
