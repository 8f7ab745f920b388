package liveevents

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// rpcTournamentCreate handles the server-to-server RPC which creates a live
// event tournament. Calls carrying a user session are rejected.
func rpcTournamentCreate(l *liveEventsImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		if userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string); ok && userID != "" {
			return "", ErrSessionForbidden
		}

		tournamentsSystem := l.GetTournamentsSystem()
		if tournamentsSystem == nil {
			return "", ErrSystemNotAvailable
		}

		request := &TournamentCreateRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal tournament create request: %v", err)
			return "", ErrInternal
		}

		if _, err := tournamentsSystem.CreateTournament(ctx, logger, nk, request); err != nil {
			logger.Error("Failed to create live event tournament: %v", err)
			return "", ErrInternal
		}

		response, err := json.Marshal(&TournamentCreateResponse{Success: true})
		if err != nil {
			logger.Error("Failed to marshal tournament create response: %v", err)
			return "", ErrInternal
		}

		return string(response), nil
	}
}

// rpcTournamentGetBucketed handles the client RPC which returns the calling
// player's bucket-scoped view of a tournament leaderboard.
func rpcTournamentGetBucketed(l *liveEventsImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			return "", ErrSessionRequired
		}

		tournamentsSystem := l.GetTournamentsSystem()
		if tournamentsSystem == nil {
			return "", ErrSystemNotAvailable
		}

		request := &TournamentGetBucketedRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal bucketed tournament request: %v", err)
			return "", ErrInternal
		}
		if request.Id == "" || request.Limit <= 0 {
			logger.Error("Invalid bucketed tournament request: id=%q limit=%d", request.Id, request.Limit)
			return "", ErrInternal
		}

		list, err := tournamentsSystem.GetBucketedTournament(ctx, logger, nk, userID, request.Id, request.Limit)
		if err != nil {
			logger.Error("Failed to get bucketed tournament %s: %v", request.Id, err)
			return "", ErrInternal
		}

		response, err := json.Marshal(list)
		if err != nil {
			logger.Error("Failed to marshal bucketed tournament response: %v", err)
			return "", ErrInternal
		}

		return string(response), nil
	}
}
