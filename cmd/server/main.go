package main

import (
	"context"
	"log"
	"time"

	"vigorfit.com/engagement/internal/config"
	"vigorfit.com/engagement/internal/entity"
	achievementRepo "vigorfit.com/engagement/internal/modules/achievement/repository"
	achievementService "vigorfit.com/engagement/internal/modules/achievement/service"
	"vigorfit.com/engagement/internal/server"
	"vigorfit.com/engagement/pkg/database"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.ActivityEvent{},
		&entity.DailySummary{},
		&entity.SummaryApplication{},
		&entity.AchievementDefinition{},
		&entity.AchievementProgress{},
		&entity.WorkoutSession{},
		&entity.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient := connectRedis(cfg.RedisURL)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := achievementService.SeedCatalog(seedCtx, achievementRepo.NewAchievementRepository(db), achievementService.DefaultCatalog()); err != nil {
		log.Fatalf("failed to seed achievement catalog: %v", err)
	}

	srv := server.NewServer(cfg, db, redisClient)
	defer srv.Stop()

	log.Printf("engagement server listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// connectRedis returns nil when no REDIS_URL is set or the URL is bad.
// The services treat a nil client as "no cache, no realtime push" and
// keep serving from Postgres.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("REDIS_URL not set, running without cache and realtime notifications")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("invalid REDIS_URL, running degraded: %v", err)
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable, running degraded: %v", err)
	}
	return client
}
