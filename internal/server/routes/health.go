package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/definitelynotaspy/intel-service/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus per-subsystem connectivity. The
// process stays healthy even when a backing store is down; consumers read
// the booleans to find out what works.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Neo4j   bool   `json:"neo4j"`
		Vectors bool   `json:"vector_index"`
		NLP     bool   `json:"nlp"`
	}

	app := c.(*middleware.AppContext).App

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	response := healthResponse{
		Status:  "healthy",
		Service: "intel",
		NLP:     app.Oracle != nil,
	}
	if app.Graph != nil && app.Graph.Ping(ctx) == nil {
		response.Neo4j = true
	}
	if app.Vectors != nil && app.Vectors.Ping(ctx) == nil {
		response.Vectors = true
	}

	return c.JSON(http.StatusOK, response)
}

// RootHandler describes the service.
func RootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Intel Service",
		"version": "1.0.0",
		"health":  "/health",
	})
}
