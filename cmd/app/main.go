package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cyber_cricket/internal/ai"
	"cyber_cricket/internal/cache"
	"cyber_cricket/internal/config"
	"cyber_cricket/internal/db"
	httpServer "cyber_cricket/internal/http"
	"cyber_cricket/internal/http/handlers"
	"cyber_cricket/internal/http/middleware"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/metrics"
	"cyber_cricket/internal/orchestrator"
	"cyber_cricket/internal/repository"
	"cyber_cricket/internal/service"
	"cyber_cricket/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	var store *repository.Store
	if cfg.DatabaseURL != "" {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPostgresStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		store = repository.NewMemoryStore()
	}

	rdb := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}
	middleware.InitRedisRateLimiter(rdb)

	responder := ai.NewClient(cfg.AITimeout, cfg.AIMaxAttempts)
	audit := service.NewAuditService(store.Audit)
	prompts := service.NewPromptService(store.Settings, audit)
	game := service.NewGameService(store, responder, prompts, audit, service.GameConfig{
		MinParticipants: cfg.MinParticipants,
		MaxParticipants: cfg.MaxParticipants,
		FinalSurvivors:  cfg.FinalSurvivors,
	})

	hub := ws.NewHub()
	seq := orchestrator.NewSequencer(game, orchestrator.Options{
		SpeakDelay: cfg.SpeakDelay,
		VoteDelay:  cfg.VoteDelay,
		Cooldown:   cfg.RecoveryCooldown,
		Observer:   orchestrator.Observers{hub, metrics.Observer{}},
	})
	hub.Snapshot = func() any { return handlers.SimulationSnapshot(seq.Status()) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go orchestrator.NewSynchronizer(game, seq, cfg.SyncInterval).Run(ctx)

	hostname, _ := os.Hostname()
	lock := cache.NewRunLock(rdb, "simulation:lock", 30*time.Second)
	sim := service.NewSimulationService(ctx, seq, lock, hostname+"-"+uuid.NewString())

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for a dashboard served from another origin
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Server{
		Handler: &handlers.Handler{
			Store:        store,
			Game:         game,
			Participants: service.NewParticipantService(store.Participants, responder, audit),
			Prompts:      prompts,
			Audit:        audit,
			Simulation:   sim,
		},
		Health: handlers.NewHealthHandler(store, rdb, sim, version),
		Hub:    hub,
		Config: cfg,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	seq.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
