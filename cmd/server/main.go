package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tower-construction-game/internal/config"
	"github.com/iliyamo/tower-construction-game/internal/database"
	"github.com/iliyamo/tower-construction-game/internal/handler"
	"github.com/iliyamo/tower-construction-game/internal/queue"
	"github.com/iliyamo/tower-construction-game/internal/repository"
	"github.com/iliyamo/tower-construction-game/internal/router"
	queue_publisher "github.com/iliyamo/tower-construction-game/internal/service"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	cancel()

	players := repository.NewPlayerRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	bids := repository.NewBidRepo(db)
	ownerships := repository.NewOwnershipRepo(db)
	renovations := repository.NewRenovationRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, state responses served uncached")
	}

	consumer := queue.NewRenovationConsumer(
		queue_publisher.BrokerURL(),
		renovations, rooms,
		cfg.ImageServiceURL,
		time.Duration(cfg.ImageTimeoutSec)*time.Second,
	)
	go func() {
		if err := consumer.Start(); err != nil {
			log.Printf("renovation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, players, tokens),
		State:       handler.NewStateHandler(cfg, players, ownerships),
		Bids:        handler.NewBidHandler(bids, rooms, players),
		Renovations: handler.NewRenovationHandler(cfg, rooms, ownerships, players, renovations),
	}, cfg.JWTSecret, rdb, time.Duration(cfg.CacheTTLSec)*time.Second)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
