package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmpoweredVote/EV-Choropleth/internal/cache"
	"github.com/EmpoweredVote/EV-Choropleth/internal/choropleth"
	"github.com/EmpoweredVote/EV-Choropleth/internal/config"
	"github.com/EmpoweredVote/EV-Choropleth/internal/logger"
	"github.com/EmpoweredVote/EV-Choropleth/internal/metrics"
	"github.com/EmpoweredVote/EV-Choropleth/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boundaries, observations, closeSources, err := choropleth.OpenSources(cfg)
	if err != nil {
		log.Fatal("Failed to open data sources", zap.Error(err))
	}
	defer func() { _ = closeSources() }()

	var svgCache cache.SVGCache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rc, err := cache.OpenRedis(ctx, cfg.RedisAddr, time.Hour)
		if err != nil {
			log.Warn("redis unavailable, using in-memory svg cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer rc.Close()
			svgCache = rc
		}
	}

	svc, err := choropleth.Init(ctx, cfg, boundaries, observations, svgCache)
	if err != nil {
		log.Fatal("Failed to load map data", zap.Error(err))
	}
	go svc.RunSweeper(ctx, time.Minute)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.AccessLog(log.Named("http")))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Handle("/metrics", metrics.Handler())
	r.Mount("/", svc.SetupRoutes())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Server listening", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Server failed", zap.Error(err))
	}
}
