package audit

import "testing"

func TestRedactNestedSensitiveKeys(t *testing.T) {
	meta := map[string]any{
		"password": "x",
		"nested":   map[string]any{"token": "y", "kept": "value"},
		"plain":    "untouched",
	}
	redacted := Redact(meta)
	if redacted["password"] != RedactionMarker {
		t.Fatalf("expected top-level password redacted, got %v", redacted["password"])
	}
	nested := redacted["nested"].(map[string]any)
	if nested["token"] != RedactionMarker {
		t.Fatalf("expected nested token redacted, got %v", nested["token"])
	}
	if nested["kept"] != "value" || redacted["plain"] != "untouched" {
		t.Fatalf("expected other keys untouched, got %v", redacted)
	}
	// The original must not be mutated.
	if meta["password"] != "x" {
		t.Fatalf("Redact must not modify its input")
	}
}

func TestRedactKeyMatchIsCaseInsensitiveSubstring(t *testing.T) {
	meta := map[string]any{
		"ApiToken":      "abc",
		"CLIENT_SECRET": "def",
		"PasswordHash":  "ghi",
		"tokenizer":     "also caught",
	}
	redacted := Redact(meta)
	for key := range meta {
		if redacted[key] != RedactionMarker {
			t.Fatalf("expected %s redacted, got %v", key, redacted[key])
		}
	}
}

func TestRedactWalksSlices(t *testing.T) {
	meta := map[string]any{
		"entries": []any{
			map[string]any{"secret": "s1", "name": "a"},
			map[string]any{"name": "b"},
		},
	}
	redacted := Redact(meta)
	entries := redacted["entries"].([]any)
	first := entries[0].(map[string]any)
	if first["secret"] != RedactionMarker || first["name"] != "a" {
		t.Fatalf("expected slice elements redacted, got %v", first)
	}
}

func TestRedactNilMeta(t *testing.T) {
	if Redact(nil) != nil {
		t.Fatalf("nil meta must stay nil")
	}
}
