package nlp

import "strings"

// DefaultEntityLabels is the label vocabulary the extraction models are
// instructed to use.
var DefaultEntityLabels = []string{
	"PERSON", "ORG", "GPE", "LOC", "NORP", "FAC",
	"DATE", "TIME", "EVENT", "PRODUCT", "WORK_OF_ART", "LAW", "LANGUAGE",
}

// ExtractedEntity is the model-facing shape for a recognized entity, before
// spans are resolved against the source text.
type ExtractedEntity struct {
	Text  string `json:"text" jsonschema_description:"Exact surface form of the entity as it appears in the source text"`
	Label string `json:"label" jsonschema_description:"One of the provided entity category labels"`
}

// EntityExtraction is the structured output contract for entity extraction.
type EntityExtraction struct {
	Entities []ExtractedEntity `json:"entities" jsonschema_description:"Named entities identified in the text, in order of appearance"`
}

// FactExtraction is the structured output contract for fact extraction.
type FactExtraction struct {
	Facts []Fact `json:"facts" jsonschema_description:"Subject-predicate-object triples stated in the text"`
}

// ResolveSpans turns model output into entities with byte offsets into the
// source text. Successive mentions of the same surface form map to
// successive occurrences; entities whose surface form cannot be found in
// the text are dropped, so every returned span is valid.
func ResolveSpans(text string, extracted []ExtractedEntity) []Entity {
	cursor := make(map[string]int, len(extracted))
	entities := make([]Entity, 0, len(extracted))

	for _, e := range extracted {
		surface := strings.TrimSpace(e.Text)
		if surface == "" {
			continue
		}
		from := cursor[surface]
		idx := -1
		if from <= len(text) {
			idx = strings.Index(text[from:], surface)
		}
		if idx == -1 {
			// Mention count exceeded occurrences; fall back to the first one.
			idx = strings.Index(text, surface)
			if idx == -1 {
				continue
			}
			from = 0
		}
		start := from + idx
		end := start + len(surface)
		cursor[surface] = end

		entities = append(entities, Entity{
			Text:  surface,
			Label: strings.ToUpper(strings.TrimSpace(e.Label)),
			Start: start,
			End:   end,
		})
	}

	return entities
}

const ExtractEntitiesPrompt = `# Task Context
You are a named-entity recognition system. You will be given a text document.

# Detailed Task Description & Rules
- Identify every named entity mentioned in the text.
- Report the exact surface form, character for character, as it appears in the text.
- Classify each entity with exactly one of these labels: %s
- Report entities in order of appearance. Report repeated mentions once per mention.
- Do not invent entities that are not present in the text.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    {"text": "<surface form>", "label": "<label>"}
  ]
}

# Input Text
`

const ExtractFactsPrompt = `# Task Context
You are a relation extraction system. You will be given a text document.

# Detailed Task Description & Rules
- Extract subject-predicate-object triples that are explicitly stated in the text.
- Use the surface forms from the text for subject and object.
- Use a short verb phrase from the sentence as the predicate.
- Include the full sentence each triple was extracted from.
- Only report triples supported by a single sentence; do not infer across sentences.

# Output Formatting
Return a JSON object with this structure:
{
  "facts": [
    {"subject": "<subject>", "predicate": "<predicate>", "object": "<object>", "sentence": "<sentence>"}
  ]
}

# Input Text
`
