package routes

import (
	"net/http"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"

	"github.com/labstack/echo/v4"
)

// AnalyzeHandler runs entity extraction, summarization, and fact
// extraction over a single text and optionally persists the results.
func AnalyzeHandler(c echo.Context) error {
	type analyzeBody struct {
		Text            string `json:"text" validate:"required"`
		ExtractEntities *bool  `json:"extract_entities"`
		GenerateSummary bool   `json:"generate_summary"`
		StoreInGraph    *bool  `json:"store_in_graph"`
	}

	type analyzeResponse struct {
		Status   string         `json:"status"`
		Message  string         `json:"message,omitempty"`
		Entities []nlp.Entity   `json:"entities"`
		Summary  string         `json:"summary,omitempty"`
		Metadata map[string]any `json:"metadata"`
	}

	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Oracle == nil {
		return c.JSON(http.StatusServiceUnavailable, analyzeResponse{
			Status:  "error",
			Message: "Extraction backend unavailable",
		})
	}

	extractEntities := true
	if data.ExtractEntities != nil {
		extractEntities = *data.ExtractEntities
	}
	storeInGraph := true
	if data.StoreInGraph != nil {
		storeInGraph = *data.StoreInGraph
	}

	ctx := c.Request().Context()
	result, err := app.Coordinator.Analyze(ctx, data.Text, ingest.AnalyzeOptions{
		ExtractEntities: extractEntities,
		GenerateSummary: data.GenerateSummary,
		StoreInGraph:    storeInGraph,
	})
	if err != nil {
		logger.Error("Analysis failed", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Status:  "error",
			Message: "Analysis failed",
		})
	}

	metadata := map[string]any{}
	if extractEntities {
		metadata["entity_count"] = result.EntityCount
	}
	if result.FactsCount > 0 {
		metadata["facts_count"] = result.FactsCount
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Status:   "success",
		Entities: result.Entities,
		Summary:  result.Summary,
		Metadata: metadata,
	})
}
