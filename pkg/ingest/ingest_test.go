package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	"github.com/definitelynotaspy/intel-service/pkg/store"
)

type stubOracle struct {
	entities    map[string][]nlp.Entity
	facts       map[string][]nlp.Fact
	failOn      string
	embedFailOn string
}

func (s *stubOracle) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	if s.failOn != "" && text == s.failOn {
		return nil, errors.New("extraction failed")
	}
	return s.entities[text], nil
}

func (s *stubOracle) ExtractFacts(ctx context.Context, text string) ([]nlp.Fact, error) {
	return s.facts[text], nil
}

func (s *stubOracle) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.embedFailOn != "" && text == s.embedFailOn {
		return nil, errors.New("embedding failed")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *stubOracle) LoadModels(ctx context.Context) error { return nil }

type stubGraph struct {
	upserts       []string
	relationships []string
	failOn        string
}

func (g *stubGraph) UpsertEntity(ctx context.Context, entityType, name string, properties map[string]any) (string, error) {
	if g.failOn != "" && name == g.failOn {
		return "", errors.New("graph write failed")
	}
	g.upserts = append(g.upserts, name)
	return name, nil
}

func (g *stubGraph) UpsertRelationship(ctx context.Context, from, to, relType string, properties map[string]any) (bool, error) {
	g.relationships = append(g.relationships, from+"->"+to)
	return true, nil
}

func (g *stubGraph) EntityGraph(ctx context.Context, name string, depth int) ([]store.Node, []store.Relationship, error) {
	return nil, nil, nil
}

func (g *stubGraph) SearchEntities(ctx context.Context, query string, limit int) ([]store.EntityHit, error) {
	return nil, nil
}

func (g *stubGraph) Stats(ctx context.Context) (store.Stats, error) { return store.Stats{}, nil }
func (g *stubGraph) Ping(ctx context.Context) error                 { return nil }
func (g *stubGraph) Close(ctx context.Context) error                { return nil }

type stubVectors struct {
	stored []string
}

func (v *stubVectors) Store(ctx context.Context, text string, embedding []float32, metadata map[string]any) (string, error) {
	v.stored = append(v.stored, text)
	return "id-" + text, nil
}

func (v *stubVectors) Search(ctx context.Context, vector []float32, topK int, threshold float64, filters map[string]any) ([]store.VectorRecord, error) {
	return nil, nil
}

func (v *stubVectors) Delete(ctx context.Context, id string) error { return nil }
func (v *stubVectors) Info(ctx context.Context) (store.IndexInfo, error) {
	return store.IndexInfo{}, nil
}
func (v *stubVectors) Ping(ctx context.Context) error { return nil }

func entity(text, label string) nlp.Entity {
	return nlp.Entity{Text: text, Label: label, Start: 0, End: len(text)}
}

func TestAnalyzeStoresDeduplicatedEntities(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{
			"text": {entity("Alice", "PERSON"), entity("Alice", "PERSON"), entity("Bob", "PERSON")},
		},
		facts: map[string][]nlp.Fact{},
	}
	graph := &stubGraph{}
	vectors := &stubVectors{}
	c := NewCoordinator(oracle, graph, vectors)

	result, err := c.Analyze(context.Background(), "text", AnalyzeOptions{
		ExtractEntities: true,
		StoreInGraph:    true,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// All mentions are reported, but each surface form is stored once.
	if result.EntityCount != 3 {
		t.Fatalf("expected 3 entities reported, got %d", result.EntityCount)
	}
	if len(graph.upserts) != 2 {
		t.Fatalf("expected 2 graph writes, got %d (%v)", len(graph.upserts), graph.upserts)
	}
	if len(vectors.stored) != 2 {
		t.Fatalf("expected 2 vector writes, got %d (%v)", len(vectors.stored), vectors.stored)
	}
}

func TestAnalyzeCountsFactsWithoutStoring(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{},
		facts: map[string][]nlp.Fact{
			"text": {{Subject: "Alice", Predicate: "knows", Object: "Bob", Sentence: "Alice knows Bob."}},
		},
	}
	graph := &stubGraph{}
	c := NewCoordinator(oracle, graph, &stubVectors{})

	result, err := c.Analyze(context.Background(), "text", AnalyzeOptions{})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.FactsCount != 1 {
		t.Fatalf("expected 1 fact counted, got %d", result.FactsCount)
	}
	if len(graph.relationships) != 0 {
		t.Fatalf("facts must not be stored without store_in_graph, got %v", graph.relationships)
	}
}

func TestAnalyzeGraphFailureStillWritesVector(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{
			"text": {entity("Alice", "PERSON")},
		},
		facts: map[string][]nlp.Fact{},
	}
	graph := &stubGraph{failOn: "Alice"}
	vectors := &stubVectors{}
	c := NewCoordinator(oracle, graph, vectors)

	result, err := c.Analyze(context.Background(), "text", AnalyzeOptions{
		ExtractEntities: true,
		StoreInGraph:    true,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.EntityCount != 1 {
		t.Fatalf("entity must still be reported, got count %d", result.EntityCount)
	}
	if len(vectors.stored) != 1 {
		t.Fatalf("vector write must proceed after graph failure, got %v", vectors.stored)
	}
}

func TestAnalyzeEmbeddingFailureSkipsVectorOnly(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{
			"text": {entity("Alice", "PERSON")},
		},
		facts:       map[string][]nlp.Fact{},
		embedFailOn: "Alice",
	}
	graph := &stubGraph{}
	vectors := &stubVectors{}
	c := NewCoordinator(oracle, graph, vectors)

	if _, err := c.Analyze(context.Background(), "text", AnalyzeOptions{
		ExtractEntities: true,
		StoreInGraph:    true,
	}); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(graph.upserts) != 1 {
		t.Fatalf("graph write must succeed, got %v", graph.upserts)
	}
	if len(vectors.stored) != 0 {
		t.Fatalf("vector write must be skipped when embedding fails, got %v", vectors.stored)
	}
}

func TestProcessBatchDeduplicatesAcrossPages(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{
			"page one": {entity("Alice", "PERSON"), entity("Acme", "ORG")},
			"page two": {entity("Alice", "PERSON"), entity("Paris", "GPE")},
		},
		facts: map[string][]nlp.Fact{},
	}
	graph := &stubGraph{}
	vectors := &stubVectors{}
	c := NewCoordinator(oracle, graph, vectors)

	result, err := c.ProcessBatch(context.Background(), "job-1", []CrawlResult{
		{URL: "https://a.example", Content: "page one", CrawledAt: time.Now()},
		{URL: "https://b.example", Content: "page two", CrawledAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.ProcessedCount != 2 {
		t.Fatalf("expected 2 pages processed, got %d", result.ProcessedCount)
	}
	if result.EntitiesFound != 3 {
		t.Fatalf("expected 3 distinct entities, got %d", result.EntitiesFound)
	}
	if len(graph.upserts) != 3 {
		t.Fatalf("expected 3 graph writes, got %v", graph.upserts)
	}
}

func TestProcessBatchAbsorbsPageFailure(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{
			"good page": {entity("Alice", "PERSON")},
		},
		facts:  map[string][]nlp.Fact{},
		failOn: "bad page",
	}
	c := NewCoordinator(oracle, &stubGraph{}, &stubVectors{})

	result, err := c.ProcessBatch(context.Background(), "job-2", []CrawlResult{
		{URL: "https://bad.example", Content: "bad page", CrawledAt: time.Now()},
		{URL: "https://good.example", Content: "good page", CrawledAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if result.ProcessedCount != 1 {
		t.Fatalf("failed page must not count as processed, got %d", result.ProcessedCount)
	}
	if result.EntitiesFound != 1 {
		t.Fatalf("expected 1 entity from surviving page, got %d", result.EntitiesFound)
	}
}

func TestProcessBatchStoresFacts(t *testing.T) {
	oracle := &stubOracle{
		entities: map[string][]nlp.Entity{"page": {}},
		facts: map[string][]nlp.Fact{
			"page": {{Subject: "Alice", Predicate: "works for", Object: "Acme", Sentence: "Alice works for Acme."}},
		},
	}
	graph := &stubGraph{}
	c := NewCoordinator(oracle, graph, &stubVectors{})

	if _, err := c.ProcessBatch(context.Background(), "job-3", []CrawlResult{
		{URL: "https://a.example", Content: "page", CrawledAt: time.Now()},
	}); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	if len(graph.relationships) != 1 || graph.relationships[0] != "Alice->Acme" {
		t.Fatalf("expected fact relationship stored, got %v", graph.relationships)
	}
}
