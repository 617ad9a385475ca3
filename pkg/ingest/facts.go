package ingest

import (
	"context"

	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
)

// materializeFacts stores each fact as two generic Entity nodes joined by
// an edge typed after the predicate. A fact that fails to store is logged
// and skipped; the remaining facts still go through.
func (c *Coordinator) materializeFacts(ctx context.Context, facts []nlp.Fact) {
	if c.graph == nil {
		return
	}

	for _, fact := range facts {
		if _, err := c.graph.UpsertEntity(ctx, "Entity", fact.Subject, map[string]any{"name": fact.Subject}); err != nil {
			logger.Error("Failed to store fact subject", "subject", fact.Subject, "err", err)
			continue
		}
		if _, err := c.graph.UpsertEntity(ctx, "Entity", fact.Object, map[string]any{"name": fact.Object}); err != nil {
			logger.Error("Failed to store fact object", "object", fact.Object, "err", err)
			continue
		}

		_, err := c.graph.UpsertRelationship(ctx, fact.Subject, fact.Object, fact.Predicate, map[string]any{
			"sentence": fact.Sentence,
		})
		if err != nil {
			logger.Error("Failed to store fact relationship",
				"subject", fact.Subject,
				"predicate", fact.Predicate,
				"object", fact.Object,
				"err", err,
			)
		}
	}
}
