package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/secure-calc-api/internal/config"
	"github.com/iliyamo/secure-calc-api/internal/database"
	"github.com/iliyamo/secure-calc-api/internal/handler"
	"github.com/iliyamo/secure-calc-api/internal/middleware"
	"github.com/iliyamo/secure-calc-api/internal/queue"
	"github.com/iliyamo/secure-calc-api/internal/repository"
	"github.com/iliyamo/secure-calc-api/internal/router"
	"github.com/iliyamo/secure-calc-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	calcs := repository.NewCalcRepo(db)

	audit := service.NewAMQPAuditPublisher("")
	auth := service.NewAuthService(cfg, users, tokens, audit)

	h := router.Handlers{
		Auth:  handler.NewAuthHandler(cfg, auth),
		Token: handler.NewTokenHandler(auth),
		Admin: handler.NewAdminHandler(auth),
		Calc:  handler.NewCalcHandler(calcs),
	}

	var opts router.Options
	if rdb := config.NewRedisClient(); rdb != nil {
		opts.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		opts.Cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	// Audit trail consumer runs alongside the server; it reconnects on
	// its own and only ever returns on unrecoverable setup errors.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, h, cfg.JWTSecret, opts)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
