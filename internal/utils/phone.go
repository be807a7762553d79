package utils

import "strings"

// NormalizePhone maps any accepted phone representation to one canonical
// E.164-style string. Every store key goes through this, so equivalent
// formats ("whatsapp:+9665...", "05...", "009665...") always resolve to
// the same conversation, cart and session.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")

	// Strip everything except digits and a leading +
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return ""
	}

	// International access prefix
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	if strings.HasPrefix(s, "+") {
		return s
	}

	// Saudi local forms: 05XXXXXXXX and 5XXXXXXXX
	switch {
	case strings.HasPrefix(s, "966"):
		return "+" + s
	case strings.HasPrefix(s, "05") && len(s) == 10:
		return "+966" + s[1:]
	case strings.HasPrefix(s, "5") && len(s) == 9:
		return "+966" + s
	}

	return "+" + s
}
