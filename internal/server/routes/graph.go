package routes

import (
	"net/http"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/store"

	"github.com/labstack/echo/v4"
)

// GetEntityGraphHandler returns the bounded neighborhood of an entity.
func GetEntityGraphHandler(c echo.Context) error {
	type graphQuery struct {
		Depth int `query:"depth" validate:"omitempty,gte=1,lte=3"`
	}

	type graphResponse struct {
		Status        string               `json:"status"`
		Message       string               `json:"message,omitempty"`
		Entity        string               `json:"entity,omitempty"`
		Depth         int                  `json:"depth,omitempty"`
		Nodes         []store.Node         `json:"nodes"`
		Relationships []store.Relationship `json:"relationships"`
	}

	data := new(graphQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, graphResponse{
			Status:  "error",
			Message: "Invalid query parameters",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, graphResponse{
			Status:  "error",
			Message: "Depth must be between 1 and 3",
		})
	}
	if data.Depth == 0 {
		data.Depth = 1
	}

	entity := c.Param("entity")

	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.JSON(http.StatusServiceUnavailable, graphResponse{
			Status:  "error",
			Message: "Graph store unavailable",
		})
	}

	nodes, relationships, err := app.Query.EntityGraph(c.Request().Context(), entity, data.Depth)
	if err != nil {
		logger.Error("Graph traversal failed", "entity", entity, "err", err)
		return c.JSON(http.StatusInternalServerError, graphResponse{
			Status:  "error",
			Message: "Graph traversal failed",
		})
	}

	return c.JSON(http.StatusOK, graphResponse{
		Status:        "success",
		Entity:        entity,
		Depth:         data.Depth,
		Nodes:         nodes,
		Relationships: relationships,
	})
}

// GetGraphStatsHandler reports store-wide counts and labels.
func GetGraphStatsHandler(c echo.Context) error {
	type statsResponse struct {
		Status     string       `json:"status"`
		Message    string       `json:"message,omitempty"`
		Statistics *store.Stats `json:"statistics,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.JSON(http.StatusServiceUnavailable, statsResponse{
			Status:  "error",
			Message: "Graph store unavailable",
		})
	}

	stats, err := app.Query.GraphStats(c.Request().Context())
	if err != nil {
		logger.Error("Failed to read graph statistics", "err", err)
		return c.JSON(http.StatusInternalServerError, statsResponse{
			Status:  "error",
			Message: "Failed to read graph statistics",
		})
	}

	return c.JSON(http.StatusOK, statsResponse{
		Status:     "success",
		Statistics: &stats,
	})
}

// CreateEntityHandler upserts a single node.
func CreateEntityHandler(c echo.Context) error {
	type entityBody struct {
		EntityType string         `json:"entity_type" validate:"required"`
		Name       string         `json:"name" validate:"required"`
		Properties map[string]any `json:"properties"`
	}

	type entityResponse struct {
		Status   string `json:"status"`
		Message  string `json:"message,omitempty"`
		EntityID string `json:"entity_id,omitempty"`
	}

	data := new(entityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, entityResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, entityResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.JSON(http.StatusServiceUnavailable, entityResponse{
			Status:  "error",
			Message: "Graph store unavailable",
		})
	}

	id, err := app.Graph.UpsertEntity(c.Request().Context(), data.EntityType, data.Name, data.Properties)
	if err != nil {
		logger.Error("Failed to create entity", "name", data.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, entityResponse{
			Status:  "error",
			Message: "Failed to create entity",
		})
	}

	return c.JSON(http.StatusOK, entityResponse{
		Status:   "success",
		EntityID: id,
		Message:  "Created entity: " + data.Name,
	})
}

// CreateRelationshipHandler upserts an edge between two existing nodes.
func CreateRelationshipHandler(c echo.Context) error {
	type relationshipBody struct {
		FromEntity       string         `json:"from_entity" validate:"required"`
		ToEntity         string         `json:"to_entity" validate:"required"`
		RelationshipType string         `json:"relationship_type" validate:"required"`
		Properties       map[string]any `json:"properties"`
	}

	type relationshipResponse struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	}

	data := new(relationshipBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, relationshipResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, relationshipResponse{
			Status:  "error",
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.JSON(http.StatusServiceUnavailable, relationshipResponse{
			Status:  "error",
			Message: "Graph store unavailable",
		})
	}

	created, err := app.Graph.UpsertRelationship(
		c.Request().Context(),
		data.FromEntity,
		data.ToEntity,
		data.RelationshipType,
		data.Properties,
	)
	if err != nil {
		logger.Error("Failed to create relationship", "from", data.FromEntity, "to", data.ToEntity, "err", err)
		return c.JSON(http.StatusInternalServerError, relationshipResponse{
			Status:  "error",
			Message: "Failed to create relationship",
		})
	}
	if !created {
		return c.JSON(http.StatusNotFound, relationshipResponse{
			Status:  "error",
			Message: "One or both entities not found",
		})
	}

	return c.JSON(http.StatusOK, relationshipResponse{
		Status:  "success",
		Message: "Created relationship: " + data.FromEntity + " -" + data.RelationshipType + "-> " + data.ToEntity,
	})
}

// SearchGraphHandler finds entities by substring over names and properties.
func SearchGraphHandler(c echo.Context) error {
	type searchQuery struct {
		Query string `query:"query" validate:"required"`
		Limit int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	}

	type searchResponse struct {
		Status  string            `json:"status"`
		Message string            `json:"message,omitempty"`
		Query   string            `json:"query,omitempty"`
		Results []store.EntityHit `json:"results"`
		Total   int               `json:"total"`
	}

	data := new(searchQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Status:  "error",
			Message: "Invalid query parameters",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Status:  "error",
			Message: "Invalid query parameters",
		})
	}
	if data.Limit == 0 {
		data.Limit = 10
	}

	app := c.(*middleware.AppContext).App
	if app.Graph == nil {
		return c.JSON(http.StatusServiceUnavailable, searchResponse{
			Status:  "error",
			Message: "Graph store unavailable",
		})
	}

	results, err := app.Query.SearchGraph(c.Request().Context(), data.Query, data.Limit)
	if err != nil {
		logger.Error("Graph search failed", "query", data.Query, "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Status:  "error",
			Message: "Graph search failed",
		})
	}

	return c.JSON(http.StatusOK, searchResponse{
		Status:  "success",
		Query:   data.Query,
		Results: results,
		Total:   len(results),
	})
}
