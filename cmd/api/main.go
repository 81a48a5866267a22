package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/storypath/internal/config"
	"github.com/jwebster45206/storypath/internal/engine"
	"github.com/jwebster45206/storypath/internal/handlers"
	"github.com/jwebster45206/storypath/internal/logger"
	"github.com/jwebster45206/storypath/internal/middleware"
	"github.com/jwebster45206/storypath/internal/services"
	"github.com/jwebster45206/storypath/internal/sessionstore"
	"github.com/jwebster45206/storypath/internal/storage"
	"github.com/jwebster45206/storypath/pkg/story"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting StoryPath API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName)

	store, err := storage.NewSQLiteStorage(cfg.SQLitePath, log)
	if err != nil {
		log.Error("Failed to open database", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer seedCancel()
	if err := store.SeedNodes(seedCtx, story.SeedGraph()); err != nil {
		log.Error("Failed to seed story graph", "error", err)
		os.Exit(1)
	}

	sessions := sessionstore.NewRedisStore(cfg.RedisURL, cfg.SessionTTL, log)
	sessionCtx, sessionCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer sessionCancel()
	if err := sessions.WaitForConnection(sessionCtx); err != nil {
		log.Error("Failed to connect to session store", "error", err)
		os.Exit(1)
	}

	generator := services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)

	// Initialize the model on startup
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := generator.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	eng := engine.New(store, generator, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, sessions, log)
	mux.Handle("/health", healthHandler)

	authHandler := handlers.NewAuthHandler(store, sessions, log)
	mux.Handle("/v1/auth/", authHandler)

	characterHandler := handlers.NewCharacterHandler(store, sessions, log)
	mux.Handle("/v1/character", characterHandler)

	gameHandler := handlers.NewGameHandler(eng, store, sessions, log)
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	savesHandler := handlers.NewSavesHandler(eng, sessions, log)
	mux.Handle("/v1/saves", savesHandler)
	mux.Handle("/v1/saves/", savesHandler)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Drain in-flight requests before closing the backends they use
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := sessions.Close(); err != nil {
		log.Error("Error closing session store", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing database", "error", err)
	}

	log.Info("Server exited")
}
