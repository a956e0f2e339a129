// Command migrate runs the schema migrations and checks the connection.
package main

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/learnpath/config"
	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/utils"
	"go.uber.org/zap"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}

	logger, err := utils.NewLogger(env.GO_ENV)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	store, err := database.Open(env, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.HealthCheck(ctx); err != nil {
		logger.Fatal("database health check failed", zap.Error(err))
	}

	logger.Info("migrations completed", zap.String("driver", env.DB_DRIVER))
}
