package audit

import "strings"

// RedactionMarker replaces sensitive values before a fact leaves this package.
const RedactionMarker = "[REDACTED]"

var sensitiveKeyFragments = []string{"password", "token", "secret"}

func isSensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// Redact deep-walks metadata and replaces the value of any key containing
// password, token, or secret (case-insensitive) at any nesting depth. The
// input is not modified; a redacted copy is returned.
func Redact(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	redacted := make(map[string]any, len(meta))
	for key, value := range meta {
		if isSensitiveKey(key) {
			redacted[key] = RedactionMarker
			continue
		}
		redacted[key] = redactValue(value)
	}
	return redacted
}

func redactValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Redact(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = redactValue(item)
		}
		return items
	default:
		return value
	}
}
