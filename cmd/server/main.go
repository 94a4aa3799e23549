package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillswap-backend/internal/api"
	"skillswap-backend/internal/api/handlers"
	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/config"
	"skillswap-backend/internal/jobs"
	"skillswap-backend/internal/matchmaking"
	"skillswap-backend/internal/realtime"
	"skillswap-backend/internal/reputation"
	"skillswap-backend/internal/storage"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	store, err := storage.NewStorage(ctx, cfg.Database.URL, cfg.Redis.URL, storage.PoolConfig{
		MaxConnections: cfg.Database.MaxConnections,
		MaxIdleTime:    cfg.Database.MaxIdleTime,
		MaxLifetime:    cfg.Database.MaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize realtime manager and matchmaker
	wsManager := realtime.NewManager(store.DB, store.Redis, issuer)
	matcher := matchmaking.NewService(store.DB, store.DB, wsManager)
	wsManager.SetMatchmaker(matcher)

	go wsManager.Start(ctx)
	go wsManager.RelayEvents(ctx, store.Redis.SubscribeEvents(ctx))

	// Initialize background processor
	processor, err := jobs.NewProcessor(matcher, cfg.Redis.URL, cfg.Queue.SweepInterval)
	if err != nil {
		log.Fatalf("Failed to initialize background processor: %v", err)
	}
	if err := processor.Start(ctx); err != nil {
		log.Fatalf("Failed to start background processor: %v", err)
	}
	defer processor.Stop()

	// Initialize handlers
	aggregator := reputation.NewAggregator(store.DB, store.DB)

	deps := &api.Dependencies{
		Issuer:          issuer,
		WSManager:       wsManager,
		AuthHandler:     handlers.NewAuthHandler(store.DB, issuer, false),
		ChatHandler:     handlers.NewChatHandler(store.DB),
		FeedbackHandler: handlers.NewFeedbackHandler(aggregator),
	}

	r := api.NewRouter(deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
