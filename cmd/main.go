package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"MediCore/cache"
	"MediCore/config"
	"MediCore/controllers"
	"MediCore/database"
	"MediCore/logging"
	"MediCore/routes"
	"MediCore/utils"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	shutdownTimeout   = 10 * time.Second
	redisPoolInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Get().Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(cfg.ServiceName, cfg.Env)
	logger := logging.Get()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid clinic time zone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(ctx, cfg.DBURL, cfg.IsDevelopment())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error().Err(err).Msg("failed to close database")
		}
	}()

	redisClient, err := database.NewRedisClient(ctx, database.LoadRedisConfig(cfg.RedisAddress))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	store, err := cache.NewCache(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize cache")
	}

	tokens, err := utils.NewTokenManager(cfg.SymmetricKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	handler := routes.SetupRoutes(cfg, routes.Dependencies{
		DB:           db,
		Cache:        store,
		Locker:       database.NewRedisLocker(redisClient),
		Mailer:       utils.NewSMTPMailer(cfg.SMTP, loc),
		Tokens:       tokens,
		Location:     loc,
		HealthChecks: healthChecks(db, redisClient),
	})

	srv := &http.Server{
		Addr:           cfg.ServerAddr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    30 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		logger.Info().Str("addr", cfg.ServerAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(redisPoolInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				database.MonitorRedisPool(ctx, redisClient)
			}
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	logger.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	wg.Wait()
	logger.Info().Msg("server exited gracefully")
}

func healthChecks(db *gorm.DB, client *redis.Client) map[string]controllers.HealthCheck {
	return map[string]controllers.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}
