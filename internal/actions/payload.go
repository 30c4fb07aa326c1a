package actions

import (
	"strconv"
	"strings"
)

// Payload values come from untrusted provider JSON, so every accessor
// tolerates missing keys and wrong types.

func stringArg(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return strings.TrimSpace(s)
}

func intArg(payload map[string]any, key string, def, lo, hi int) int {
	n := def
	switch v := payload[key].(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			n = parsed
		}
	}
	return min(max(n, lo), hi)
}
