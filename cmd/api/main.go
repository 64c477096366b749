package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grid-planner/internal/api/handlers"
	"grid-planner/internal/api/middleware"
	"grid-planner/internal/config"
	"grid-planner/internal/logger"
	"grid-planner/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	cfg, err := config.ServerFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	runs := store.New(cfg.RunTTL)
	defer runs.Close()
	planHandler := handlers.NewPlanHandler(runs, log)

	// Health check
	router.GET("/health", handlers.Health)

	// API routes
	planHandler.Routes(router.Group("/api/v1"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting API server", "addr", srv.Addr, "env", cfg.Env, "run_ttl", cfg.RunTTL.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("server stopped")
}
