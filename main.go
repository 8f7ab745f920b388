package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"liveevents/liveevents"
)

// noinspection GoUnusedExportedFunction
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	logger.Info("Loading live events Nakama plugin...")

	if _, err := liveevents.Init(ctx, logger, nk, initializer,
		liveevents.WithTournamentsSystem("tournaments.json", true),
	); err != nil {
		logger.Error("Failed to initialize live events systems: %v", err)
		return err
	}

	logger.Info("Live events Nakama plugin loaded in '%d' msec.", time.Now().Sub(initStart).Milliseconds())
	return nil
}
