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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Ahmed3656/iChat/cmd/api/router"
	assetAdapter "github.com/Ahmed3656/iChat/internal/infrastructure/assets/adapter"
	cacheAdapter "github.com/Ahmed3656/iChat/internal/infrastructure/cache/adapter"
	"github.com/Ahmed3656/iChat/internal/infrastructure/config"
	"github.com/Ahmed3656/iChat/internal/infrastructure/database"
	queueAdapter "github.com/Ahmed3656/iChat/internal/infrastructure/queue/adapter"
	"github.com/Ahmed3656/iChat/internal/infrastructure/realtime"
	"github.com/Ahmed3656/iChat/internal/pkg/chat/application/task"
	httpHandler "github.com/Ahmed3656/iChat/internal/pkg/chat/presentation/http"
)

const startupTimeout = 5 * time.Second

func main() {
	// Load .env file; in production the environment is set directly.
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found or could not be loaded", slog.Any("error", err))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	cache, err := cacheAdapter.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer cache.Close()

	assets, err := assetAdapter.NewMinioStore(assetAdapter.Config{
		Endpoint:  cfg.AssetsEndpoint,
		AccessKey: cfg.AssetsAccessKey,
		SecretKey: cfg.AssetsSecretKey,
		UseSSL:    cfg.AssetsUseSSL,
		Bucket:    cfg.AssetsBucket,
	})
	if err != nil {
		log.Error("failed to build asset store", slog.Any("error", err))
		os.Exit(1)
	}
	if err := assets.EnsureBucket(ctx); err != nil {
		log.Error("failed to ensure asset bucket", slog.Any("error", err))
		os.Exit(1)
	}

	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to build queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer queueClient.Close()

	worker, err := queueAdapter.NewAsynqServer(cfg.RedisURL, cfg.WorkerConcurrency, log)
	if err != nil {
		log.Error("failed to build queue worker", slog.Any("error", err))
		os.Exit(1)
	}
	task.RegisterReleaseAssetTask(worker, assets, log)

	gateway := realtime.NewGateway(cfg.TypingDebounce, log)

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.RegisterRoutes(r, httpHandler.Deps{
		Pool:    pool,
		Cache:   cache,
		Assets:  assets,
		Queue:   queueClient,
		Gateway: gateway,
		Cfg:     cfg,
		Log:     log,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := worker.Run(runCtx); err != nil {
			log.Error("queue worker stopped", slog.Any("error", err))
		}
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-runCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", slog.Any("error", err))
	}
	gateway.Close()
	if err := worker.Stop(shutdownCtx); err != nil {
		log.Error("queue worker shutdown failed", slog.Any("error", err))
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
