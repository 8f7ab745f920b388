package liveevents

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// afterAuthenticateDevice credits the welcome gift to accounts created by this
// authentication. The hook never fails the authentication itself.
func afterAuthenticateDevice(l *liveEventsImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error {
		if out == nil || !out.Created {
			return nil
		}

		tournamentsSystem := l.GetTournamentsSystem()
		if tournamentsSystem == nil {
			return nil
		}

		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			logger.Warn("No user id in context after device authentication, skipping welcome gift")
			return nil
		}

		tournamentsSystem.GrantWelcomeGift(ctx, logger, nk, userID)
		return nil
	}
}

// tournamentEnd distributes rewards when a live event cycle ends. The trigger
// is fire-and-forget: distribution failures are logged inside the system and
// never surfaced to the host.
func tournamentEnd(l *liveEventsImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, tournament *api.Tournament, end, reset int64) error {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, tournament *api.Tournament, end, reset int64) error {
		tournamentsSystem := l.GetTournamentsSystem()
		if tournamentsSystem == nil {
			return nil
		}

		tournamentsSystem.DistributeRewards(ctx, logger, nk, tournament, reset)
		return nil
	}
}
