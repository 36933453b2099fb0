package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/calcproject/freightcalc/internal/api/handler"
	"github.com/calcproject/freightcalc/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// db and rdb may be nil when the corresponding store is not configured; they
// are only used by the readiness probe.
func NewRouter(service ports.QuoteService, history ports.QuoteHistoryRepository, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Quote routes ---
	quoteHandler := handler.NewQuoteHandler(service, history)
	e.POST("/v1/quotes", quoteHandler.Calculate)
	e.GET("/v1/quotes/recent", quoteHandler.Recent)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
