package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boostd/internal/boostapi"
	"boostd/internal/config"
	"boostd/internal/db"
	httpServer "boostd/internal/http"
	"boostd/internal/http/handlers"
	"boostd/internal/http/middleware"
	"boostd/internal/logger"
	"boostd/internal/repository"
	"boostd/internal/service"
	"boostd/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.Log)
	defer func() { _ = logger.Get().Sync() }()

	service.InitJWT(cfg.JWTSecret)

	var (
		pool  *pgxpool.Pool
		store service.OutcomeStore
	)
	if cfg.DatabaseURL != "" {
		pool = db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewOutcomeRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, game history disabled")
	}

	// Interfaces stay nil (not typed nil) when redis is absent
	var (
		rdb   redis.UniversalClient
		locks service.SessionLocker
	)
	if client := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); client != nil {
		defer client.Close()
		rdb = client
		locks = repository.NewSessionLocks(client, cfg.SessionLockTTL)
		middleware.SetRedisClient(client)
	}

	api := boostapi.NewClient(cfg.BoostAPIURL, cfg.BoostAPITimeout)
	svc := service.NewBoostGameService(
		func(token string) service.Backend { return api.WithToken(token) },
		store,
		locks,
		service.BoostGameConfig{
			TickInterval: cfg.TickInterval,
			RevealDelay:  cfg.RevealDelay,
		},
	)
	hub := ws.NewHub(ws.ServiceOpener(svc))

	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	httpServer.RegisterRoutes(r, cfg, httpServer.Deps{
		Games:  svc,
		Health: handlers.NewHealthHandler(pool, rdb, hub.Count, version),
		Hub:    hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	hub.Shutdown()

	logger.Info("server exited")
}
