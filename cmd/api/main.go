package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bloglist-api/core"
)

func main() {
	cfg := core.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	if err := core.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the metrics endpoints report empty.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
	}

	tokens := core.NewTokenService([]byte(cfg.Secret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	users := core.NewPgUserRepository(db)
	blogs := core.NewPgBlogRepository(db)
	authService := core.NewRepositoryAuthService(users)
	metrics := core.NewMetricsService(redisClient)

	router := core.NewRouter(cfg, tokens, authService, users, blogs, metrics)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
