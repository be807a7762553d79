package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderReference produces a short, human-shareable order reference:
// base-36 of the current time plus a random base-36 suffix, e.g. "MC3K1A-7GQ2".
// Uniqueness is probabilistic, not guaranteed; references are not checked
// against existing orders.
func GenerateOrderReference() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	max := big.NewInt(36 * 36 * 36 * 36)
	n, err := rand.Int(rand.Reader, max)
	suffix := "0000"
	if err == nil {
		suffix = fmt.Sprintf("%04s", strconv.FormatInt(n.Int64(), 36))
	}

	return strings.ToUpper(ts + "-" + suffix)
}

// GenerateMessageID returns a unique id for a message. Falls back to a
// timestamped pseudo-random string if UUID generation fails; the fallback
// is not collision-safe.
func GenerateMessageID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		n, _ := rand.Int(rand.Reader, big.NewInt(999999))
		return fmt.Sprintf("msg-%d-%06d", time.Now().UnixNano(), n.Int64())
	}
	return id.String()
}
