package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	"github.com/definitelynotaspy/intel-service/pkg/query"
	"github.com/definitelynotaspy/intel-service/pkg/store"
)

// App holds the shared subsystems handlers reach through the request
// context. A nil Graph, Vectors, or Queue means that subsystem failed to
// initialize and the routes depending on it answer 503 until it recovers.
type App struct {
	Graph   store.GraphStore
	Vectors store.VectorIndex
	Oracle  nlp.Oracle
	Queue   *amqp091.Channel

	Coordinator *ingest.Coordinator
	Query       *query.Client
}

type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the shared App into every request. The App
// is constructed once at startup, not per request.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{
				Context: c,
				App:     app,
			}
			return next(cc)
		}
	}
}
