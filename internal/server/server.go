package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/definitelynotaspy/intel-service/internal/queue"
	mid "github.com/definitelynotaspy/intel-service/internal/server/middleware"
	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/ingest"
	"github.com/definitelynotaspy/intel-service/pkg/logger"
	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	nlpollama "github.com/definitelynotaspy/intel-service/pkg/nlp/ollama"
	nlpopenai "github.com/definitelynotaspy/intel-service/pkg/nlp/openai"
	"github.com/definitelynotaspy/intel-service/pkg/query"
	storeneo4j "github.com/definitelynotaspy/intel-service/pkg/store/neo4j"
	storepgx "github.com/definitelynotaspy/intel-service/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewOracle builds the extraction backend selected by AI_ADAPTER.
func NewOracle() (nlp.Oracle, error) {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		return nlpollama.NewClient(nlpollama.NewClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvInt("AI_PARALLEL_REQ", 15)),
		})
	default:
		return nlpopenai.NewClient(nlpopenai.NewClientParams{
			EmbeddingModel:  util.GetEnv("AI_EMBED_MODEL"),
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		}), nil
	}
}

// NewApp initializes the stores and the extraction backend. Store init
// failures are logged, not fatal; the process starts degraded and /health
// reports what is reachable.
func NewApp(ctx context.Context) *mid.App {
	app := &mid.App{}

	graph, err := storeneo4j.NewGraphStore(ctx, storeneo4j.NewGraphStoreParams{
		URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		User:     util.GetEnvString("NEO4J_USER", "neo4j"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
	})
	if err != nil {
		logger.Error("Failed to connect to Neo4j", "err", err)
	} else {
		app.Graph = graph
		logger.Info("Neo4j connected")
	}

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := storepgx.RunMigrations(databaseURL, "migrations"); err != nil {
		logger.Error("Failed to run migrations", "err", err)
	}
	vectors, err := storepgx.NewVectorIndex(ctx, storepgx.NewVectorIndexParams{
		DatabaseURL: databaseURL,
		Collection:  util.GetEnvString("VECTOR_COLLECTION", "entities"),
	})
	if err != nil {
		logger.Error("Failed to connect to vector index", "err", err)
	} else {
		app.Vectors = vectors
		logger.Info("Vector index initialized")
	}

	oracle, err := NewOracle()
	if err != nil {
		logger.Error("Failed to create extraction backend", "err", err)
	} else {
		app.Oracle = oracle
		go func() {
			warmCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			if err := oracle.LoadModels(warmCtx); err != nil {
				logger.Warn("Model warm-up failed", "err", err)
			} else {
				logger.Info("Models loaded")
			}
		}()
	}

	app.Coordinator = ingest.NewCoordinator(app.Oracle, app.Graph, app.Vectors)
	app.Query = query.NewClient(app.Oracle, app.Graph, app.Vectors)

	return app
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(ctx)
	defer func() {
		if app.Graph != nil {
			_ = app.Graph.Close(context.Background())
		}
	}()

	if conn, err := queue.Connect(); err != nil {
		logger.Error("Failed to connect to RabbitMQ", "err", err)
	} else {
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Error("Failed to open channel", "err", err)
		} else {
			defer ch.Close()
			if err := queue.SetupQueues(ch, []string{queue.ProcessQueue}); err != nil {
				logger.Error("Failed to set up queues", "err", err)
			}
			app.Queue = ch
		}
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
