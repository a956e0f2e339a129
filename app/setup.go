package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/learnpath/api"
	"github.com/sahilchouksey/learnpath/config"
	"github.com/sahilchouksey/learnpath/database"
	"github.com/sahilchouksey/learnpath/router"
	"github.com/sahilchouksey/learnpath/services"
	"github.com/sahilchouksey/learnpath/services/cron"
	"github.com/sahilchouksey/learnpath/utils"
	"github.com/sahilchouksey/learnpath/utils/cache"
	"github.com/sahilchouksey/learnpath/utils/middleware"
	"go.uber.org/zap"
)

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}
	if err := env.Validate(); err != nil {
		return err
	}

	log, err := utils.NewLogger(env.GO_ENV)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := database.Open(env, log)
	if err != nil {
		log.Error("failed to connect to database", zap.String("driver", env.DB_DRIVER), zap.Error(err))
		return err
	}

	if err := store.Init(); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		store.Close()
		return err
	}

	// Cron manager is optional
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.GetDB(), log)
		if err := cronManager.Start(); err != nil {
			log.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}

	// Redis is optional; without it login lockouts are off
	var redisCache *cache.RedisCache
	var cacheStore cache.Store
	if env.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Warn("failed to connect to redis", zap.Error(err))
		} else {
			cacheStore = redisCache
		}
	}

	var faceVerifier services.FaceVerifier
	if v := services.NewHTTPFaceVerifier(env.FACE_SERVICE_URL, env.FACE_MATCH_THRESHOLD); v != nil {
		faceVerifier = v
	} else {
		log.Warn("FACE_SERVICE_URL not set, post-watch verification will answer 503")
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), log)
	app := server.GetEngine()

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_REQUESTS,
		RateLimitWindow:   time.Minute,
	}, log)

	router.SetupRoutes(app, router.Dependencies{
		Store:        store,
		Env:          env,
		Log:          log,
		Cache:        cacheStore,
		FaceVerifier: faceVerifier,
		Cron:         cronManager,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	return server.Run()
}
