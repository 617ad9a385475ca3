package nlp

import "testing"

func TestResolveSpans(t *testing.T) {
	text := "Alice met Bob in Paris. Alice liked Paris."

	spans := ResolveSpans(text, []ExtractedEntity{
		{Text: "Alice", Label: "PERSON"},
		{Text: "Bob", Label: "PERSON"},
		{Text: "Paris", Label: "GPE"},
		{Text: "Alice", Label: "PERSON"},
		{Text: "Paris", Label: "GPE"},
	})

	if len(spans) != 5 {
		t.Fatalf("expected 5 entities, got %d", len(spans))
	}

	for _, e := range spans {
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			t.Fatalf("invalid span [%d,%d) for %q", e.Start, e.End, e.Text)
		}
		if text[e.Start:e.End] != e.Text {
			t.Fatalf("span mismatch: text[%d:%d] = %q, want %q", e.Start, e.End, text[e.Start:e.End], e.Text)
		}
	}

	// Repeated mentions must advance to the next occurrence.
	if spans[0].Start == spans[3].Start {
		t.Fatalf("duplicate Alice mentions resolved to the same offset %d", spans[0].Start)
	}
	if spans[2].Start == spans[4].Start {
		t.Fatalf("duplicate Paris mentions resolved to the same offset %d", spans[2].Start)
	}
}

func TestResolveSpansDropsMissingMentions(t *testing.T) {
	spans := ResolveSpans("Bob went home.", []ExtractedEntity{
		{Text: "Alice", Label: "PERSON"},
		{Text: "Bob", Label: "PERSON"},
	})

	if len(spans) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(spans))
	}
	if spans[0].Text != "Bob" {
		t.Fatalf("expected Bob to survive, got %q", spans[0].Text)
	}
}

func TestResolveSpansMoreMentionsThanOccurrences(t *testing.T) {
	text := "Bob was here."

	spans := ResolveSpans(text, []ExtractedEntity{
		{Text: "Bob", Label: "PERSON"},
		{Text: "Bob", Label: "PERSON"},
	})

	for _, e := range spans {
		if text[e.Start:e.End] != e.Text {
			t.Fatalf("span mismatch: text[%d:%d] = %q", e.Start, e.End, text[e.Start:e.End])
		}
	}
}
