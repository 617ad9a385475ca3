package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/definitelynotaspy/intel-service/internal/queue"
	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ProcessHandler ingests a batch of crawl results delivered by the
// crawler service. With async set the batch is handed to the worker over
// the process queue instead of being processed inline.
func ProcessHandler(c echo.Context) error {
	type processBody struct {
		JobID   string               `json:"job_id" validate:"required"`
		Results []ingest.CrawlResult `json:"results" validate:"required"`
		Async   bool                 `json:"async"`
	}

	type processResponse struct {
		Status         string `json:"status"`
		Message        string `json:"message,omitempty"`
		JobID          string `json:"job_id,omitempty"`
		ProcessedCount int    `json:"processed_count"`
		EntitiesFound  int    `json:"entities_found"`
	}

	data := new(processBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, processResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, processResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	if data.Async {
		if app.Queue == nil {
			return c.JSON(http.StatusServiceUnavailable, processResponse{
				Status:  "error",
				Message: "Queue unavailable",
			})
		}

		payload, err := json.Marshal(map[string]any{
			"job_id":  data.JobID,
			"results": data.Results,
		})
		if err != nil {
			logger.Error("Failed to encode batch", "job_id", data.JobID, "err", err)
			return c.JSON(http.StatusInternalServerError, processResponse{
				Status:  "error",
				Message: "Failed to enqueue batch",
			})
		}
		if err := queue.PublishFIFO(app.Queue, queue.ProcessQueue, payload); err != nil {
			logger.Error("Failed to publish batch", "job_id", data.JobID, "err", err)
			return c.JSON(http.StatusInternalServerError, processResponse{
				Status:  "error",
				Message: "Failed to enqueue batch",
			})
		}

		return c.JSON(http.StatusAccepted, processResponse{
			Status:  "queued",
			JobID:   data.JobID,
			Message: fmt.Sprintf("Queued %d pages for processing", len(data.Results)),
		})
	}

	if app.Oracle == nil {
		return c.JSON(http.StatusServiceUnavailable, processResponse{
			Status:  "error",
			Message: "Extraction backend unavailable",
		})
	}

	result, err := app.Coordinator.ProcessBatch(c.Request().Context(), data.JobID, data.Results)
	if err != nil {
		logger.Error("Batch processing failed", "job_id", data.JobID, "err", err)
		return c.JSON(http.StatusInternalServerError, processResponse{
			Status:  "error",
			Message: "Batch processing failed",
		})
	}

	return c.JSON(http.StatusOK, processResponse{
		Status:         "success",
		JobID:          data.JobID,
		ProcessedCount: result.ProcessedCount,
		EntitiesFound:  result.EntitiesFound,
		Message:        fmt.Sprintf("Successfully processed %d pages", result.ProcessedCount),
	})
}
