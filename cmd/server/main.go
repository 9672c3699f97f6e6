package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/cache"
	"github.com/sparrowchat/sparrow/internal/config"
	"github.com/sparrowchat/sparrow/internal/delivery"
	"github.com/sparrowchat/sparrow/internal/gate"
	"github.com/sparrowchat/sparrow/internal/handler"
	"github.com/sparrowchat/sparrow/internal/media"
	"github.com/sparrowchat/sparrow/internal/middleware"
	"github.com/sparrowchat/sparrow/internal/observability"
	"github.com/sparrowchat/sparrow/internal/presence"
	"github.com/sparrowchat/sparrow/internal/repository"
	"github.com/sparrowchat/sparrow/internal/service"
	"github.com/sparrowchat/sparrow/internal/ws"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Observability
	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(context.Background())
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	db := initPostgres(ctx, cfg, log)
	defer db.Close()

	redisClient := initRedis(ctx, cfg.RedisAddr, log)
	defer redisClient.Close()

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		log.Fatal("failed to initialize media store", zap.Error(err))
	}

	// Storage
	messageRepo := &repository.MessageRepo{DB: db}
	userRepo := &repository.UserRepo{DB: db}
	blockRepo := &repository.BlockRepo{DB: db}
	requestRepo := &repository.RequestRepo{DB: db}
	userCache := &cache.UserCache{R: redisClient}

	// Real-time plumbing
	registry := ws.NewRegistry()
	presence.NewBroadcaster(registry)
	presenceStore := presence.NewStore(redisClient)
	router := delivery.NewRouter(registry)

	contactGate := gate.New(blockRepo, requestRepo, messageRepo)
	messageSvc := service.NewMessageService(messageRepo, userRepo, userCache, contactGate, mediaStore, router)
	userSvc := service.NewUserService(userRepo)

	wsHandler := ws.NewHandler(registry, presenceStore, router, func(token string) (string, error) {
		return middleware.ParseSubject(token, []byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
	})

	readyChecks := []func(context.Context) error{
		db.PingContext,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	mux := handler.NewRouter(
		handler.NewMessageHandler(messageSvc),
		handler.NewUserHandler(userSvc, presenceStore),
		wsHandler,
		cfg.MediaDir,
		readyChecks,
		cfg,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		log.Info("server started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	performGracefulShutdown(srv, registry, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func initPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) *sql.DB {
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := repository.Migrate(db, cfg.MigrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	return db
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func performGracefulShutdown(srv *http.Server, reg *ws.Registry, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during server shutdown", zap.Error(err))
	}
	reg.CloseAll()
	log.Info("shutdown complete, exiting")
}
