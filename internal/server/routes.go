package server

import (
	"github.com/definitelynotaspy/intel-service/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/", routes.RootHandler)
	e.GET("/health", routes.HealthHandler)

	apiRoutes := e.Group("/api/v1")

	// Analysis routes
	apiRoutes.POST("/analyze", routes.AnalyzeHandler)
	apiRoutes.POST("/compare", routes.CompareHandler)
	apiRoutes.POST("/process", routes.ProcessHandler)

	// Graph routes
	apiRoutes.GET("/graph/stats", routes.GetGraphStatsHandler)
	apiRoutes.GET("/graph/search", routes.SearchGraphHandler)
	apiRoutes.POST("/graph/entity", routes.CreateEntityHandler)
	apiRoutes.POST("/graph/relationship", routes.CreateRelationshipHandler)
	apiRoutes.GET("/graph/:entity", routes.GetEntityGraphHandler)

	// Search routes
	apiRoutes.POST("/search", routes.SemanticSearchHandler)
	apiRoutes.GET("/search/similar/:entity", routes.FindSimilarEntitiesHandler)
	apiRoutes.GET("/search/info", routes.GetSearchInfoHandler)
}
