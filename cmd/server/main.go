package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stasyao/mymdb/internal/config"
	"github.com/stasyao/mymdb/internal/database"
	"github.com/stasyao/mymdb/internal/handler"
	"github.com/stasyao/mymdb/internal/middleware"
	"github.com/stasyao/mymdb/internal/queue"
	"github.com/stasyao/mymdb/internal/repository"
	"github.com/stasyao/mymdb/internal/router"
	queue_publisher "github.com/stasyao/mymdb/internal/service"
)

func main() {
	// In local development a .env file supplies configuration; in other
	// environments the variables are set directly, so a missing file is fine.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis backs the response cache and the vote rate limiter. When it is
	// unreachable the client is nil and both features degrade to no-ops.
	rdb := config.NewRedisClient()
	var cacheMW, limiterMW echo.MiddlewareFunc
	if rdb != nil {
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		limiterMW = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	} else {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	personRepo := repository.NewPersonRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	voteRepo := repository.NewVoteRepo(db)

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	catalogH := handler.NewCatalogHandler(movieRepo, personRepo, voteRepo)
	curatorH := handler.NewCuratorHandler(personRepo, movieRepo, roleRepo)
	voteH := handler.NewVoteHandler(movieRepo, voteRepo, queue_publisher.PublishVoteCast)

	go func() {
		if err := queue.StartVoteConsumer(); err != nil {
			log.Printf("vote consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH, cfg.JWTSecret, cacheMW)
	router.RegisterVotes(e, voteH, cfg.JWTSecret, cfg.LoginURL, limiterMW)
	router.RegisterCurator(e, curatorH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
