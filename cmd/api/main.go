package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"trade-montecarlo/internal/api"
	"trade-montecarlo/internal/api/middleware"
	"trade-montecarlo/internal/config"
	"trade-montecarlo/internal/data"
	"trade-montecarlo/internal/logging"
	"trade-montecarlo/internal/montecarlo"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Resolve(os.Getenv("CONFIG_FILE"), os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := data.DefaultResultTTL
	if s := os.Getenv("RESULT_TTL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			ttl = parsed
		} else {
			logger.WithError(err).Warn("ignoring RESULT_TTL")
		}
	}
	maxCells := 0
	if s := os.Getenv("API_MAX_CELLS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			maxCells = n
		} else {
			logger.WithError(err).Warn("ignoring API_MAX_CELLS")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := data.NewResultCache(ttl)
	go cache.RunCleanup(ctx, 5*time.Minute)

	router := api.NewRouter(api.Options{
		Runner:   montecarlo.New(),
		Cache:    cache,
		Defaults: cfg.Simulation,
		Logger:   logger,
		Origins:  middleware.ParseOrigins(os.Getenv("CORS_ORIGINS")),
		MaxCells: maxCells,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithFields(log.Fields{
		"addr":       srv.Addr,
		"result_ttl": ttl,
		"weeks":      cfg.Simulation.NumWeeks,
		"paths":      cfg.Simulation.NumSimulations,
	}).Info("starting API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("failed to start server")
	}
	logger.Info("server stopped")
}
