package routes

import (
	"net/http"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/store"

	"github.com/labstack/echo/v4"
)

// SemanticSearchHandler searches the vector index with an embedded query.
func SemanticSearchHandler(c echo.Context) error {
	type searchBody struct {
		Query     string         `json:"query" validate:"required"`
		TopK      int            `json:"top_k" validate:"omitempty,gte=1,lte=100"`
		Threshold *float64       `json:"threshold" validate:"omitempty,gte=0,lte=1"`
		Filters   map[string]any `json:"filters"`
	}

	type searchResponse struct {
		Status  string               `json:"status"`
		Message string               `json:"message,omitempty"`
		Query   string               `json:"query,omitempty"`
		Results []store.VectorRecord `json:"results"`
		Total   int                  `json:"total"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if data.TopK == 0 {
		data.TopK = 10
	}
	threshold := 0.5
	if data.Threshold != nil {
		threshold = *data.Threshold
	}

	app := c.(*middleware.AppContext).App
	if app.Vectors == nil || app.Oracle == nil {
		return c.JSON(http.StatusServiceUnavailable, searchResponse{
			Status:  "error",
			Message: "Vector index unavailable",
		})
	}

	results, err := app.Query.SemanticSearch(c.Request().Context(), data.Query, data.TopK, threshold, data.Filters)
	if err != nil {
		logger.Error("Semantic search failed", "query", data.Query, "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Status:  "error",
			Message: "Semantic search failed",
		})
	}

	return c.JSON(http.StatusOK, searchResponse{
		Status:  "success",
		Query:   data.Query,
		Results: results,
		Total:   len(results),
	})
}

// FindSimilarEntitiesHandler returns the nearest stored records to the
// named entity, excluding the entity itself.
func FindSimilarEntitiesHandler(c echo.Context) error {
	type similarQuery struct {
		TopK      int      `query:"top_k" validate:"omitempty,gte=1,lte=100"`
		Threshold *float64 `query:"threshold" validate:"omitempty,gte=0,lte=1"`
	}

	type similarResponse struct {
		Status          string               `json:"status"`
		Message         string               `json:"message,omitempty"`
		Entity          string               `json:"entity,omitempty"`
		SimilarEntities []store.VectorRecord `json:"similar_entities"`
		Total           int                  `json:"total"`
	}

	data := new(similarQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Status:  "error",
			Message: "Invalid query parameters",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, similarResponse{
			Status:  "error",
			Message: "Invalid query parameters",
		})
	}
	if data.TopK == 0 {
		data.TopK = 10
	}
	threshold := 0.5
	if data.Threshold != nil {
		threshold = *data.Threshold
	}

	entity := c.Param("entity")

	app := c.(*middleware.AppContext).App
	if app.Vectors == nil || app.Oracle == nil {
		return c.JSON(http.StatusServiceUnavailable, similarResponse{
			Status:  "error",
			Message: "Vector index unavailable",
		})
	}

	results, err := app.Query.SimilarEntities(c.Request().Context(), entity, data.TopK, threshold)
	if err != nil {
		logger.Error("Similar entity search failed", "entity", entity, "err", err)
		return c.JSON(http.StatusInternalServerError, similarResponse{
			Status:  "error",
			Message: "Similar entity search failed",
		})
	}

	return c.JSON(http.StatusOK, similarResponse{
		Status:          "success",
		Entity:          entity,
		SimilarEntities: results,
		Total:           len(results),
	})
}

// GetSearchInfoHandler reports vector collection metadata.
func GetSearchInfoHandler(c echo.Context) error {
	type infoResponse struct {
		Status         string           `json:"status"`
		Message        string           `json:"message,omitempty"`
		CollectionInfo *store.IndexInfo `json:"collection_info,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.Vectors == nil {
		return c.JSON(http.StatusServiceUnavailable, infoResponse{
			Status:  "error",
			Message: "Vector index unavailable",
		})
	}

	info, err := app.Query.IndexInfo(c.Request().Context())
	if err != nil {
		logger.Error("Failed to read index info", "err", err)
		return c.JSON(http.StatusInternalServerError, infoResponse{
			Status:  "error",
			Message: "Failed to read index info",
		})
	}

	return c.JSON(http.StatusOK, infoResponse{
		Status:         "success",
		CollectionInfo: &info,
	})
}
