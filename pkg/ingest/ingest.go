package ingest

import (
	"context"

	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	"github.com/definitelynotaspy/intel-service/pkg/store"
)

// Coordinator orchestrates extraction output into the graph store and the
// vector index. Writes to the two stores are independent failure domains;
// a failed write is logged and skipped so one bad entity never aborts a
// batch.
type Coordinator struct {
	oracle  nlp.Oracle
	graph   store.GraphStore
	vectors store.VectorIndex
}

// NewCoordinator wires a Coordinator to its extraction backend and stores.
func NewCoordinator(oracle nlp.Oracle, graph store.GraphStore, vectors store.VectorIndex) *Coordinator {
	return &Coordinator{
		oracle:  oracle,
		graph:   graph,
		vectors: vectors,
	}
}

// AnalyzeOptions selects which analysis stages run for a single text.
type AnalyzeOptions struct {
	ExtractEntities  bool
	GenerateSummary  bool
	StoreInGraph     bool
	SummaryMaxLength int
}

// AnalyzeResult carries the outcome of a single-text analysis.
type AnalyzeResult struct {
	Entities    []nlp.Entity
	Summary     string
	EntityCount int
	FactsCount  int
}

// Analyze runs entity extraction, summarization, and fact extraction over
// one text. Extracted entities are returned even when their storage fails;
// facts are always extracted and counted, and stored only when requested.
func (c *Coordinator) Analyze(ctx context.Context, text string, opts AnalyzeOptions) (AnalyzeResult, error) {
	result := AnalyzeResult{Entities: []nlp.Entity{}}

	if opts.ExtractEntities {
		entities, err := c.oracle.ExtractEntities(ctx, text)
		if err != nil {
			return result, err
		}
		result.Entities = entities
		result.EntityCount = len(entities)
	}

	if opts.GenerateSummary {
		maxLength := opts.SummaryMaxLength
		if maxLength <= 0 {
			maxLength = nlp.DefaultSummaryLength
		}
		result.Summary = nlp.Summarize(text, maxLength)
	}

	if opts.StoreInGraph && len(result.Entities) > 0 {
		seen := map[string]bool{}
		for _, entity := range result.Entities {
			if seen[entity.Text] {
				continue
			}
			seen[entity.Text] = true

			c.storeEntity(ctx, entity,
				map[string]any{
					"name":   entity.Text,
					"source": "analysis",
				},
				map[string]any{
					"label":  entity.Label,
					"source": "analysis",
				},
			)
		}
	}

	facts, err := c.oracle.ExtractFacts(ctx, text)
	if err != nil {
		return result, err
	}
	result.FactsCount = len(facts)
	if opts.StoreInGraph {
		c.materializeFacts(ctx, facts)
	}

	return result, nil
}

// storeEntity writes one entity to both stores. Each write is attempted
// independently; a graph failure does not prevent the vector write and
// vice versa.
func (c *Coordinator) storeEntity(
	ctx context.Context,
	entity nlp.Entity,
	properties map[string]any,
	metadata map[string]any,
) {
	if c.graph != nil {
		if _, err := c.graph.UpsertEntity(ctx, entity.Label, entity.Text, properties); err != nil {
			logger.Error("Failed to store entity in graph", "entity", entity.Text, "err", err)
		}
	}

	if c.vectors != nil {
		embedding, err := c.oracle.GenerateEmbedding(ctx, entity.Text)
		if err != nil {
			logger.Error("Failed to embed entity", "entity", entity.Text, "err", err)
			return
		}
		if _, err := c.vectors.Store(ctx, entity.Text, embedding, metadata); err != nil {
			logger.Error("Failed to store entity embedding", "entity", entity.Text, "err", err)
		}
	}
}
