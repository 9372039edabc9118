package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/tower-construction-game/internal/config"
	"github.com/iliyamo/tower-construction-game/internal/database"
	"github.com/iliyamo/tower-construction-game/internal/engine"
	"github.com/iliyamo/tower-construction-game/internal/game"
	"github.com/iliyamo/tower-construction-game/internal/snapshot"
)

// cmd/tick runs exactly one tick and exits; cron provides the schedule.
// A run that finds the lock held exits zero, overlap is expected.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	var lock engine.Locker
	if rdb := config.NewRedisClient(); rdb != nil {
		rl, err := engine.NewRedisLock(rdb, "tick:lock", time.Duration(cfg.LockTTLSec)*time.Second)
		if err != nil {
			logger.Error("build redis lock", "error", err)
			os.Exit(1)
		}
		lock = rl
	} else {
		logger.Warn("redis unavailable, using file lock")
		lock = engine.NewFileLock(filepath.Join(filepath.Dir(cfg.SnapshotPath), "tick.lock"))
	}

	store := engine.NewSQLStore(db)
	materializer := snapshot.NewMaterializer(store.Rooms, store.Bids, store.Ownerships, cfg.SnapshotPath)

	if meta, err := store.Ticks.Get(ctx); err == nil && !meta.LastTickAt.IsZero() {
		logger.Info("previous tick", "at", meta.LastTickAt)
	}

	eng := engine.New(game.GridConfig{
		Width:   cfg.GridWidth,
		Height:  cfg.GridHeight,
		PerTick: cfg.PlannedPerTick,
	}, store, lock, materializer, logger)

	if err := eng.RunTick(ctx); err != nil {
		os.Exit(1)
	}
}
