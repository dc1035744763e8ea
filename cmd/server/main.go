package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/pickupgames/backend/internal/config"
	"github.com/pickupgames/backend/internal/database"
	"github.com/pickupgames/backend/internal/handler"
	"github.com/pickupgames/backend/internal/middleware"
	"github.com/pickupgames/backend/internal/queue"
	"github.com/pickupgames/backend/internal/repository"
	"github.com/pickupgames/backend/internal/router"
	"github.com/pickupgames/backend/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	store := repository.NewStore(db)
	svc := service.NewAttendance(store, time.Now)
	users := repository.NewUserRepo(db)

	// Redis is optional. A nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and caching disabled")
	}

	go queue.StartAttendanceConsumer()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Deps{
		Auth:       handler.NewAuthHandler(cfg, users),
		Games:      handler.NewGameHandler(svc),
		Attendance: handler.NewAttendanceHandler(svc),
		JWTSecret:  cfg.JWTSecret,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
