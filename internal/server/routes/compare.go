package routes

import (
	"errors"
	"net/http"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/compare"
	"github.com/definitelynotaspy/intel-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CompareHandler scores two entity attribute maps against each other and
// returns a match verdict.
func CompareHandler(c echo.Context) error {
	type compareBody struct {
		Entity1   map[string]any `json:"entity1" validate:"required"`
		Entity2   map[string]any `json:"entity2" validate:"required"`
		Threshold *float64       `json:"threshold" validate:"omitempty,gte=0,lte=1"`
	}

	type compareResponse struct {
		Status                string            `json:"status"`
		Message               string            `json:"message,omitempty"`
		Similarity            float64           `json:"similarity"`
		MatchingAttributes    []string          `json:"matching_attributes"`
		ConflictingAttributes []compare.Conflict `json:"conflicting_attributes"`
		Verdict               string            `json:"verdict"`
		Confidence            string            `json:"confidence,omitempty"`
	}

	data := new(compareBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, compareResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, compareResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Oracle == nil {
		return c.JSON(http.StatusServiceUnavailable, compareResponse{
			Status:  "error",
			Message: "Extraction backend unavailable",
		})
	}

	threshold := 0.7
	if data.Threshold != nil {
		threshold = *data.Threshold
	}

	result, err := compare.Compare(c.Request().Context(), app.Oracle, data.Entity1, data.Entity2, threshold)
	if err != nil {
		if errors.Is(err, compare.ErrMissingText) {
			return c.JSON(http.StatusBadRequest, compareResponse{
				Status:  "error",
				Message: "Both entities must have 'text' field",
			})
		}
		logger.Error("Comparison failed", "err", err)
		return c.JSON(http.StatusInternalServerError, compareResponse{
			Status:  "error",
			Message: "Comparison failed",
		})
	}

	return c.JSON(http.StatusOK, compareResponse{
		Status:                "success",
		Similarity:            result.Similarity,
		MatchingAttributes:    result.MatchingAttributes,
		ConflictingAttributes: result.ConflictingAttributes,
		Verdict:               result.Verdict,
		Confidence:            result.Confidence,
	})
}
