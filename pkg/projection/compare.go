package projection

import (
	"cmp"
	"strings"
	"time"
)

// CompareInt orders integers.
func CompareInt(a, b int) int { return cmp.Compare(a, b) }

// CompareFloat orders floats.
func CompareFloat(a, b float64) int { return cmp.Compare(a, b) }

// CompareString orders strings case-insensitively, falling back to a byte
// comparison so the order stays total.
func CompareString(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// CompareTime orders timestamps.
func CompareTime(a, b time.Time) int { return a.Compare(b) }

// CompareFloatPtr orders optional floats; nil sorts before any value.
func CompareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
