package utils

import (
	"strconv"
	"strings"
)

// PositiveIntOr parses raw as a positive integer. Anything else (absent,
// non-numeric, zero, negative) yields fallback, matching how the feed treats
// ?page= and ?limit=.
func PositiveIntOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
