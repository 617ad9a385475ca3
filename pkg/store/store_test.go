package store

import (
	"encoding/json"
	"strings"
	"testing"
)

// Search consumers read the stored text under the "entity" key.
func TestVectorRecordWireShape(t *testing.T) {
	b, err := json.Marshal(VectorRecord{ID: "abc", Score: 0.9, Text: "Alice"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"entity":"Alice"`) {
		t.Fatalf("expected entity key in %s", b)
	}
	if strings.Contains(string(b), `"text"`) {
		t.Fatalf("stored text must not serialize as text: %s", b)
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain label", input: "PERSON", want: "PERSON"},
		{name: "mixed case kept", input: "WorkOfArt", want: "WorkOfArt"},
		{name: "punctuation stripped", input: "ORG-2;DROP", want: "ORG2DROP"},
		{name: "empty falls back", input: "", want: "Entity"},
		{name: "only punctuation falls back", input: "$$$", want: "Entity"},
		{name: "leading digit falls back", input: "1PERSON", want: "Entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeLabel(tt.input); got != tt.want {
				t.Fatalf("SanitizeLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeRelationshipType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "verb phrase", input: "works for", want: "WORKS_FOR"},
		{name: "already normalized", input: "FOUNDED", want: "FOUNDED"},
		{name: "punctuation stripped", input: "is located in!", want: "IS_LOCATED_IN"},
		{name: "unicode stripped", input: "gehört zu", want: "GEHRT_ZU"},
		{name: "empty falls back", input: "", want: "RELATED_TO"},
		{name: "only punctuation falls back", input: "???", want: "RELATED_TO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeRelationshipType(tt.input); got != tt.want {
				t.Fatalf("SanitizeRelationshipType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
