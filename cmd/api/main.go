package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pawbook/internal/api"
	"pawbook/internal/blob"
	"pawbook/internal/config"
	"pawbook/internal/database"
	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/export"
	"pawbook/internal/google"
	"pawbook/internal/logging"
	"pawbook/internal/metrics"
	"pawbook/internal/models"
	"pawbook/internal/notify"
	"pawbook/internal/repository"
	"pawbook/internal/service"
	"pawbook/internal/worker"

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
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	sessions := initSessions(cfg, redisClient, logger)

	bus := events.NewEventBus()

	blobStore := initBlobStore(ctx, cfg, logger)
	if blobStore != nil {
		defer blobStore.Close()
	}
	notifier := initNotifier(cfg, logger)

	sheetsWorker := initSheetsWorker(ctx, cfg, db, redisClient, logger)

	// Typed-nil interface values would dodge the services' nil checks.
	var (
		blobs         domain.BlobStore
		notifications domain.Notifier
		syncer        domain.SyncWorker
	)
	if blobStore != nil {
		blobs = blobStore
	}
	if notifier != nil {
		notifications = notifier
	}
	if sheetsWorker != nil {
		syncer = sheetsWorker
	}

	clinics := service.NewClinicService(db, bus, blobs, logger)
	bookings := service.NewBookingService(db, bus, syncer, notifications, logger)
	users := service.NewUserService(db, sessions, bus, blobs, cfg.Managers, logger)
	products := service.NewProductService(db, bus, blobs, logger)
	exporter := export.NewExporter(db, cfg.Exports.Path, logger)

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
	go backup.Start(ctx)

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, clinics, bookings, users, products, exporter, logger)
	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if cfg.SeedFile != "" {
		clinics, err := config.LoadSeedClinics(cfg.SeedFile)
		if err != nil {
			logger.Error().Err(err).Str("seed_file", cfg.SeedFile).Msg("load seed clinics")
			db.Close()
			return nil, err
		}
		if err := db.SeedClinics(context.Background(), clinics); err != nil {
			logger.Error().Err(err).Msg("seed clinics")
			db.Close()
			return nil, err
		}
		logger.Info().Int("count", len(clinics)).Msg("clinic catalog seeded")
	}

	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	ttl := time.Duration(cfg.API.Session.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Duration(models.DefaultSessionTTL) * time.Second
	}

	memory := repository.NewMemorySessionRepository(ttl)
	if redisClient == nil {
		logger.Info().Msg("sessions: in-memory store")
		return memory
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	logger.Info().Msg("sessions: redis with in-memory failover")
	return repository.NewFailoverSessionRepository(primary, memory, logger)
}

func initBlobStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *blob.GCSStore {
	if cfg.Storage.Bucket == "" {
		return nil
	}

	store, err := blob.NewGCSStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("blob storage init failed, continuing without uploads")
		return nil
	}
	logger.Info().Str("bucket", cfg.Storage.Bucket).Msg("blob storage connected")
	return store
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) *notify.TelegramNotifier {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ManagerChatIDs) == 0 {
		return nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ManagerChatIDs, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return nil
	}
	logger.Info().Int("chats", len(cfg.Telegram.ManagerChatIDs)).Msg("telegram notifier connected")
	return notifier
}

func initSheetsWorker(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.SheetsWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheets, err := google.NewSheetsService(cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets mirror")
		return nil
	}
	logger.Info().Msg("google sheets connected")

	retry := worker.RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      5 * time.Minute,
		BackoffFactor: 2,
	}

	sheetsWorker := worker.NewSheetsWorker(db, sheets, redisClient, retry, logger)
	go sheetsWorker.Start(ctx)
	return sheetsWorker
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

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

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
