package main

import (
	"log"

	"telemed/internal/config"
	"telemed/internal/server"
	"telemed/internal/version"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("version", version.Get().Version))

	cfg := config.New()
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not configured")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	defer srv.Close()

	if err := srv.Run(); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
