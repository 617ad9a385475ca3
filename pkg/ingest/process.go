package ingest

import (
	"context"
	"time"

	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
)

// CrawlResult is one fetched page as delivered by the crawler service.
type CrawlResult struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Links      []string  `json:"links,omitempty"`
	CrawledAt  time.Time `json:"crawled_at"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BatchResult summarizes a processed crawl batch. ProcessedCount excludes
// pages that failed outright; EntitiesFound counts distinct surface forms
// across the whole batch.
type BatchResult struct {
	ProcessedCount int
	EntitiesFound  int
}

// ProcessBatch ingests a batch of crawled pages under one job id. Pages
// are processed in order; a page whose extraction fails is logged and
// skipped without aborting the batch. Entity deduplication is by exact
// surface text across the whole batch, so a name seen on page one is not
// re-stored from page two.
func (c *Coordinator) ProcessBatch(ctx context.Context, jobID string, results []CrawlResult) (BatchResult, error) {
	batch := BatchResult{}
	seen := map[string]bool{}

	for _, result := range results {
		content := util.CleanText(result.Content)

		entities, err := c.oracle.ExtractEntities(ctx, content)
		if err != nil {
			logger.Error("Failed to process crawl result", "url", result.URL, "err", err)
			continue
		}

		for _, entity := range entities {
			if seen[entity.Text] {
				continue
			}
			seen[entity.Text] = true

			c.storeEntity(ctx, entity,
				map[string]any{
					"name":         entity.Text,
					"source_url":   result.URL,
					"source_title": util.TruncateText(result.Title, 200, "..."),
					"crawled_at":   result.CrawledAt.Format(time.RFC3339),
					"job_id":       jobID,
				},
				map[string]any{
					"label":      entity.Label,
					"source_url": result.URL,
					"job_id":     jobID,
				},
			)
		}

		facts, err := c.oracle.ExtractFacts(ctx, content)
		if err != nil {
			logger.Error("Failed to process crawl result", "url", result.URL, "err", err)
			continue
		}
		c.materializeFacts(ctx, facts)

		batch.ProcessedCount++
	}

	batch.EntitiesFound = len(seen)
	logger.Info("Processed crawl batch",
		"job_id", jobID,
		"processed", batch.ProcessedCount,
		"entities", batch.EntitiesFound,
	)

	return batch, nil
}
