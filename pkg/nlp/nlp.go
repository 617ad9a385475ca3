package nlp

import "context"

// Entity is a named entity recognized in text. Start and End are byte
// offsets of the surface form within the source text.
type Entity struct {
	Text       string   `json:"text"`
	Label      string   `json:"label"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Fact is a subject-predicate-object triple extracted from a sentence,
// destined to become a graph relationship.
type Fact struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Sentence  string `json:"sentence"`
}

// Oracle is the contract for text analysis backends. Implementations wrap a
// model server (Ollama, OpenAI-compatible APIs) and are safe for concurrent
// use across request handlers.
//
// ExtractEntities returns entities in document order with valid spans into
// the input; an empty input yields an empty slice. ExtractFacts is heuristic
// and may return nothing. GenerateEmbedding is deterministic for identical
// input against the same loaded model and always returns a vector of the
// configured dimensionality.
type Oracle interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
	ExtractFacts(ctx context.Context, text string) ([]Fact, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// LoadModels warms the backing models. Called once at startup; a failure
	// leaves the service in degraded mode rather than preventing startup.
	LoadModels(ctx context.Context) error
}
