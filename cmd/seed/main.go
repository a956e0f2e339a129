package main

import (
	"log"

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
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := database.RunSeeds(store.GetDB(), logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	logger.Info("seeding finished; the admin user is created only when ADMIN_EMAIL and ADMIN_PASSWORD are set")
}
