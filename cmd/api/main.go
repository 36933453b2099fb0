package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calcproject/freightcalc/internal/api"
	"github.com/calcproject/freightcalc/internal/core/ports"
	"github.com/calcproject/freightcalc/internal/core/service"
	"github.com/calcproject/freightcalc/internal/infrastructure/carriers"
	"github.com/calcproject/freightcalc/internal/infrastructure/config"
	mongodb "github.com/calcproject/freightcalc/internal/infrastructure/db/mongo"
	redisdb "github.com/calcproject/freightcalc/internal/infrastructure/db/redis"
	"github.com/calcproject/freightcalc/internal/infrastructure/refdata"
	"github.com/calcproject/freightcalc/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Optional stores: the aggregator works without cache or history. ---
	var cache ports.LocationCache
	rdb, err := redisdb.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, location caching disabled")
	} else {
		cache = redisdb.NewLocationCache(rdb, log)
	}

	var history ports.QuoteHistoryRepository
	mongoClient, db, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Warn().Err(err).Msg("mongodb unavailable, quote history disabled")
	} else {
		history = mongodb.NewQuoteHistoryRepository(db)
		defer func() { _ = mongoClient.Disconnect(ctx) }()
	}

	// --- Static reference data, loaded once and shared read-only. ---
	terminals, err := refdata.LoadTerminalIndex(cfg.Data.TerminalsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.TerminalsPath).Msg("failed to load terminal directory")
	}
	geography, err := refdata.LoadGeographyIndex(cfg.Data.GeographyPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.GeographyPath).Msg("failed to load geography table")
	}
	dpdTerminals, err := refdata.LoadTerminalCities(cfg.Data.DPDTerminalsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.DPDTerminalsPath).Msg("failed to load dpd terminal list")
	}
	log.Info().
		Int("dellin_cities", terminals.Len()).
		Int("dpd_cities", geography.Len()).
		Msg("reference data loaded")

	providers := []ports.RateProvider{
		carriers.NewDellin(cfg.Dellin, terminals, cache, log),
		carriers.NewPecom(cfg.Pecom, cache, log),
		carriers.NewGTD(cfg.GTD, cache, log),
		carriers.NewBaikal(cfg.Baikal, cache, log),
		carriers.NewNrgtk(cfg.Nrgtk, cache, log),
		carriers.NewDPD(cfg.DPD, geography, dpdTerminals, log),
		carriers.NewMagicTrans(cache, log),
	}

	aggregator := service.NewAggregator(providers, history, service.AggregatorOptions{
		CarrierTimeout:   cfg.CarrierTimeout,
		AggregateTimeout: cfg.AggregateTimeout,
	}, log)

	e := api.NewRouter(aggregator, history, db, rdb, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Int("carriers", len(providers)).Msg("freightcalc started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("freightcalc stopped")
}
