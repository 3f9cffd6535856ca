package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fixitnow-backend/app/repository"
	"fixitnow-backend/app/service"
	"fixitnow-backend/config"
	"fixitnow-backend/database"
	"fixitnow-backend/middleware"
	"fixitnow-backend/queue"
	"fixitnow-backend/realtime"
	"fixitnow-backend/routes"
	"fixitnow-backend/storage"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// =================================================================
	// ENV + CONFIG
	// =================================================================
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found, using process environment")
	}

	cfg := config.Load()
	logger := utils.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =================================================================
	// STORES (POSTGRES + MONGODB + REDIS)
	// =================================================================
	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("database close", "error", err)
		}
	}()

	rdb := database.NewRedisClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	files, closeFiles, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("file storage init failed", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeFiles()

	// =================================================================
	// REPOSITORIES
	// =================================================================
	userRepo := repository.NewUserRepository(db.Postgres)
	complaintRepo := repository.NewComplaintRepository(db.Mongo)
	reportRepo := repository.NewReportRepository(db.Mongo)
	tokenRepo := repository.NewTokenRepository(rdb)

	if err := database.SeedAdmin(ctx, userRepo, cfg.Seed); err != nil {
		logger.Error("admin seed failed", "error", err)
		os.Exit(1)
	}

	// =================================================================
	// EVENTS (WEBSOCKET HUB + RABBITMQ)
	// =================================================================
	hub := realtime.NewHub()
	go hub.Run(ctx)

	publishers := queue.MultiPublisher{hub}
	if cfg.RabbitMQ.URL != "" {
		amqpPub := queue.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		defer amqpPub.Close()
		buffered := queue.NewBufferedPublisher(amqpPub, cfg.RabbitMQ.Buffer)
		go buffered.Run(ctx)
		publishers = append(publishers, buffered)

		go func() {
			err := queue.StartNotificationConsumer(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, queue.LogNotification)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notification consumer stopped", "error", err)
			}
		}()
	}

	// =================================================================
	// SERVICES
	// =================================================================
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	uploader := storage.NewUploader(files, cfg.Storage.MaxUploadBytes, cfg.Storage.MaxFilesPerForm)

	authService := service.NewAuthService(userRepo, tokenRepo, jwtManager)
	complaintService := service.NewComplaintService(
		complaintRepo,
		userRepo,
		uploader,
		publishers,
		service.Lifecycle{Strict: cfg.Lifecycle.StrictTransitions},
	)
	adminService := service.NewAdminService(userRepo)
	reportService := service.NewReportService(reportRepo, complaintRepo, userRepo)

	// =================================================================
	// ROUTER
	// =================================================================
	r := gin.New()
	r.MaxMultipartMemory = cfg.Storage.MaxUploadBytes
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimit, rdb),
	)
	if local, ok := files.(*storage.LocalStore); ok {
		r.Static(storage.LocalURLPrefix, local.Dir())
	}

	routes.Register(r, routes.Services{
		Auth:           authService,
		Complaints:     complaintService,
		Admin:          adminService,
		Reports:        reportService,
		Hub:            hub,
		AllowedOrigins: cfg.App.AllowedOrigins,
	})

	// =================================================================
	// START SERVER
	// =================================================================
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("server stopped")
}

// newFileStore picks the image store named by STORAGE_DRIVER. The returned
// func releases it.
func newFileStore(ctx context.Context, cfg config.StorageConfig) (storage.FileStore, func(), error) {
	if cfg.Driver == "gcs" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentials)
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}
	local, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, nil, err
	}
	return local, func() {}, nil
}
