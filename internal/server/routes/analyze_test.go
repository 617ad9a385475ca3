package routes

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	"github.com/definitelynotaspy/intel-service/pkg/query"
	"github.com/definitelynotaspy/intel-service/pkg/store"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

type stubOracle struct {
	entities []nlp.Entity
}

func (s *stubOracle) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	return s.entities, nil
}

func (s *stubOracle) ExtractFacts(ctx context.Context, text string) ([]nlp.Fact, error) {
	return nil, nil
}

func (s *stubOracle) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (s *stubOracle) LoadModels(ctx context.Context) error { return nil }

type stubGraph struct {
	upserts []string
}

func (g *stubGraph) UpsertEntity(ctx context.Context, entityType, name string, properties map[string]any) (string, error) {
	g.upserts = append(g.upserts, name)
	return name, nil
}

func (g *stubGraph) UpsertRelationship(ctx context.Context, from, to, relType string, properties map[string]any) (bool, error) {
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

func newTestApp(oracle nlp.Oracle, graph store.GraphStore, vectors store.VectorIndex) *middleware.App {
	return &middleware.App{
		Graph:       graph,
		Vectors:     vectors,
		Oracle:      oracle,
		Coordinator: ingest.NewCoordinator(oracle, graph, vectors),
		Query:       query.NewClient(oracle, graph, vectors),
	}
}

func postJSON(app *middleware.App, target string, body string) (*middleware.AppContext, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	return &middleware.AppContext{
		Context: e.NewContext(req, rec),
		App:     app,
	}, rec
}

func TestAnalyzeStoresByDefault(t *testing.T) {
	oracle := &stubOracle{entities: []nlp.Entity{
		{Text: "Alice", Label: "PERSON", Start: 0, End: 5},
	}}
	graph := &stubGraph{}
	vectors := &stubVectors{}
	app := newTestApp(oracle, graph, vectors)

	c, rec := postJSON(app, "/api/v1/analyze", `{"text":"Alice founded Acme."}`)
	if err := AnalyzeHandler(c); err != nil {
		t.Fatalf("AnalyzeHandler failed: %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(graph.upserts) != 1 {
		t.Fatalf("entities must be persisted when store_in_graph is omitted, got %v", graph.upserts)
	}
	if len(vectors.stored) != 1 {
		t.Fatalf("embeddings must be persisted when store_in_graph is omitted, got %v", vectors.stored)
	}
}

func TestAnalyzeStoreInGraphFalseSkipsPersistence(t *testing.T) {
	oracle := &stubOracle{entities: []nlp.Entity{
		{Text: "Alice", Label: "PERSON", Start: 0, End: 5},
	}}
	graph := &stubGraph{}
	vectors := &stubVectors{}
	app := newTestApp(oracle, graph, vectors)

	c, rec := postJSON(app, "/api/v1/analyze", `{"text":"Alice founded Acme.","store_in_graph":false}`)
	if err := AnalyzeHandler(c); err != nil {
		t.Fatalf("AnalyzeHandler failed: %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(graph.upserts) != 0 {
		t.Fatalf("store_in_graph=false must skip graph writes, got %v", graph.upserts)
	}
	if len(vectors.stored) != 0 {
		t.Fatalf("store_in_graph=false must skip vector writes, got %v", vectors.stored)
	}
}
