package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wanderbook/internal/api"
	"wanderbook/internal/config"
	"wanderbook/internal/database"
	"wanderbook/internal/domain"
	"wanderbook/internal/events"
	"wanderbook/internal/export"
	"wanderbook/internal/logging"
	"wanderbook/internal/metrics"
	"wanderbook/internal/repository"
	"wanderbook/internal/service"
	"wanderbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	catalog, err := loadCatalog(&logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, catalog, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	stateRepo := initStateRepository(cfg, redisClient, &logger)

	exporter := export.NewBookingExporter(db, cfg.Exports.Path, &logger)
	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	reportWorker := worker.NewReportWorker(exporter, redisClient, retryPolicy, log.Default())
	go reportWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	catalogService := service.NewCatalogService(db, cfg.Booking.AvailabilityDays, &logger)
	promoService := service.NewPromoService(db, *cfg.Booking.RejectUpcomingPromos, &logger)
	bookingService := service.NewBookingService(db, promoService, eventBus, reportWorker,
		int64(cfg.Booking.MinGuests), int64(cfg.Booking.MaxGuests), &logger)
	checkoutService := service.NewCheckoutService(stateRepo,
		cfg.Booking.RateLimitRequests, cfg.Booking.RateLimitWindow, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	server := api.NewServer(cfg.API, catalogService, promoService, bookingService, checkoutService, &logger)
	return startServer(ctx, server, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadCatalog(logger *zerolog.Logger) (*config.Catalog, error) {
	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "configs/catalog.yaml"
	}

	catalog, err := config.LoadCatalog(catalogPath)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("load catalog")
		return nil, err
	}

	logger.Info().
		Int("experiences", len(catalog.Experiences)).
		Int("slots", len(catalog.Slots)).
		Int("promos", len(catalog.Promos)).
		Msg("catalog loaded")
	return catalog, nil
}

func initDatabase(cfg *config.Config, catalog *config.Catalog, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	ctx := context.Background()
	if err := db.SeedCatalog(ctx, catalog.Experiences, catalog.Slots); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if err := db.SeedPromos(ctx, catalog.Promos); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed promos: %w", err)
	}

	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStateRepository prefers redis with in-memory failover; pure memory when
// redis is not configured.
func initStateRepository(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	ttl := time.Duration(cfg.Booking.CheckoutTTLSeconds) * time.Second
	memoryRepo := repository.NewMemoryStateRepository(ttl)
	if redisClient == nil {
		return memoryRepo
	}

	redisRepo := repository.NewRedisStateRepository(redisClient, ttl)
	return repository.NewFailoverStateRepository(redisRepo, memoryRepo, logger)
}

func subscribeBookingEvents(eventBus *events.EventBus, logger *zerolog.Logger) {
	eventBus.Subscribe(events.EventBookingConfirmed, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		logger.Info().
			Str("booking_id", payload.BookingID).
			Str("experience_id", payload.ExperienceID).
			Int64("guests", payload.NumberOfGuests).
			Float64("total", payload.TotalPrice).
			Msg("booking confirmed")
		return nil
	})

	eventBus.Subscribe(events.EventPromoRedeemed, func(event *events.Event) error {
		var payload events.PromoEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		logger.Info().
			Str("promo_id", payload.PromoID).
			Str("code", payload.Code).
			Str("booking_id", payload.BookingID).
			Msg("promo redeemed")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, server *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = server.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
