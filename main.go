package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/backend/config"
	"taskmanager/backend/handlers"
	"taskmanager/backend/logging"
	"taskmanager/backend/metrics"
	"taskmanager/backend/repositories"
	"taskmanager/backend/response"
	"taskmanager/backend/routes"
	"taskmanager/backend/services"
	"taskmanager/backend/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}
	logging.InitLogger(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager backend...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}()

	if err := client.Ping(connectCtx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Connected to MongoDB database %s", cfg.DatabaseName)

	db := client.Database(cfg.DatabaseName)
	taskRepo := repositories.NewTaskRepo(db.Collection("tasks"))
	userRepo := repositories.NewUserRepo(db.Collection("users"))
	if err := taskRepo.EnsureIndexes(connectCtx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Task indexes: %v", err)
	}
	if err := userRepo.EnsureIndexes(connectCtx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: User indexes: %v", err)
	}

	var authOpts []services.AuthOption
	if cfg.PasswordBlacklistFile != "" {
		blacklist, err := services.LoadPasswordBlacklist(cfg.PasswordBlacklistFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: %v", err)
		}
		logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: Loaded %d blacklisted passwords", len(blacklist))
		authOpts = append(authOpts, services.WithPasswordBlacklist(blacklist))
	}

	var blobs services.BlobStore
	if cfg.GCSBucket != "" {
		gcsStore, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: STORAGE_INIT_FAILED, Description: %v", err)
		}
		defer gcsStore.Close()
		blobs = gcsStore
	} else {
		logging.Logger.Warn("Event ID: STORAGE_DISABLED, Description: GCS_BUCKET is not set, image uploads will fail")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	uploadBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "storage-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	tokens := services.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	authService := services.NewAuthService(userRepo, tokens, cfg.AdminInviteToken, authOpts...)
	taskService := services.NewTaskService(taskRepo, userRepo, m)
	dashboardService := services.NewDashboardService(taskRepo)
	userService := services.NewUserService(userRepo, taskRepo)
	reportService := services.NewReportService(taskRepo, userRepo)
	uploadService := services.NewUploadService(blobs, uploadBreaker, cfg.UploadMaxBytes, m)

	resp := &response.Responder{Dev: cfg.IsDev()}
	router := routes.NewRouter(routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, uploadService, cfg.UploadMaxBytes, resp),
		Tasks:   handlers.NewTaskHandler(taskService, dashboardService, resp),
		Users:   handlers.NewUserHandler(userService, resp),
		Reports: handlers.NewReportHandler(reportService, resp),
	}, routes.Options{
		Authenticator:  authService,
		Responder:      resp,
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
		ClientURL:      cfg.ClientURL,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}
