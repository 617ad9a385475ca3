package routes

import (
	"testing"

	"github.com/definitelynotaspy/intel-service/pkg/nlp"
)

func TestProcessRunsInlineByDefault(t *testing.T) {
	oracle := &stubOracle{entities: []nlp.Entity{
		{Text: "Alice", Label: "PERSON", Start: 0, End: 5},
	}}
	graph := &stubGraph{}
	app := newTestApp(oracle, graph, &stubVectors{})

	body := `{"job_id":"job-1","results":[{"url":"https://a.example","content":"Alice"}]}`
	c, rec := postJSON(app, "/api/v1/process", body)
	if err := ProcessHandler(c); err != nil {
		t.Fatalf("ProcessHandler failed: %v", err)
	}

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(graph.upserts) != 1 {
		t.Fatalf("inline batch must be processed immediately, got %v", graph.upserts)
	}
}

func TestProcessAsyncWithoutQueueAnswers503(t *testing.T) {
	app := newTestApp(&stubOracle{}, &stubGraph{}, &stubVectors{})

	body := `{"job_id":"job-1","async":true,"results":[{"url":"https://a.example","content":"Alice"}]}`
	c, rec := postJSON(app, "/api/v1/process", body)
	if err := ProcessHandler(c); err != nil {
		t.Fatalf("ProcessHandler failed: %v", err)
	}

	if rec.Code != 503 {
		t.Fatalf("async without a broker must answer 503, got %d: %s", rec.Code, rec.Body.String())
	}
}
