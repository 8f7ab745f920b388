package liveevents

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/robfig/cron/v3"
)

const rewardDistributionTimerName = "tournament_reward_distribution"

// NakamaTournamentsSystem implements the TournamentsSystem interface using Nakama as the backend.
type NakamaTournamentsSystem struct {
	config     *TournamentsConfig
	cronParser cron.Parser
}

// NewNakamaTournamentsSystem creates a new instance of the tournaments system with the given configuration.
func NewNakamaTournamentsSystem(config *TournamentsConfig) *NakamaTournamentsSystem {
	return &NakamaTournamentsSystem{
		config:     config,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// GetType returns the system type for the tournaments system.
func (s *NakamaTournamentsSystem) GetType() SystemType {
	return SystemTypeTournaments
}

// GetConfig returns the configuration for the tournaments system.
func (s *NakamaTournamentsSystem) GetConfig() any {
	return s.config
}

// CreateTournament creates a live event tournament and returns its id.
func (s *NakamaTournamentsSystem) CreateTournament(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, req *TournamentCreateRequest) (string, error) {
	if req == nil || req.StartTime <= 0 || req.Duration <= 0 || req.Rewards == nil {
		return "", ErrPayloadInvalid
	}
	if req.ResetSchedule != "" {
		if _, err := s.cronParser.Parse(req.ResetSchedule); err != nil {
			logger.Error("Invalid reset schedule %q: %v", req.ResetSchedule, err)
			return "", ErrPayloadInvalid
		}
	}

	id := req.Id
	if id == "" {
		id = uuid.NewString()
	}

	metadata := map[string]interface{}{
		"rewards": req.Rewards,
	}

	// End time zero means the event is governed by its duration and reset
	// cycle; active-event listings depend on this convention.
	if err := nk.TournamentCreate(ctx, id, true, "desc", "incr", req.ResetSchedule, metadata, id, "", 0, int(req.StartTime), 0, int(req.Duration), math.MaxInt32, 0, false, true); err != nil {
		logger.Error("Failed to create tournament %s: %v", id, err)
		return "", ErrInternal
	}

	return id, nil
}

// GetOrRefreshBucket loads the player's comparison cohort, regenerating it when
// the tournament's reset cycle has rolled over or the stored cohort is
// short-handed. The returned bucket includes the player's own id exactly once;
// the persisted member list never does.
func (s *NakamaTournamentsSystem) GetOrRefreshBucket(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, tournament *api.Tournament) (*UserBucket, error) {
	if tournament == nil {
		return nil, ErrTournamentNotFound
	}

	bucket, err := s.getUserBucket(ctx, nk, userID)
	if err != nil {
		logger.Error("Failed to read bucket for user %s: %v", userID, err)
		return nil, ErrInternal
	}

	resetTime := int64(tournament.EndActive)
	if bucket.ResetTimeUnix != resetTime || len(bucket.UserIDs) < BucketSize {
		// Oversample by one so the cohort stays full when the sampler happens
		// to return the requesting player.
		users, err := nk.UsersGetRandom(ctx, BucketSize+1)
		if err != nil {
			logger.Error("Failed to sample bucket members for user %s: %v", userID, err)
			return nil, ErrInternal
		}

		userIDs := make([]string, 0, BucketSize)
		for _, user := range users {
			if user.Id == userID {
				continue
			}
			if len(userIDs) == BucketSize {
				break
			}
			userIDs = append(userIDs, user.Id)
		}

		bucket = &UserBucket{
			ResetTimeUnix: resetTime,
			UserIDs:       userIDs,
		}
		if err := s.saveUserBucket(ctx, nk, userID, bucket); err != nil {
			logger.Error("Failed to persist bucket for user %s: %v", userID, err)
			return nil, ErrInternal
		}
	}

	withSelf := &UserBucket{
		ResetTimeUnix: bucket.ResetTimeUnix,
		UserIDs:       append(append(make([]string, 0, len(bucket.UserIDs)+1), bucket.UserIDs...), userID),
	}
	return withSelf, nil
}

// GetBucketedTournament returns the player's bucket-scoped leaderboard view for
// the given tournament.
func (s *NakamaTournamentsSystem) GetBucketedTournament(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, tournamentID string, limit int) (*BucketedTournamentList, error) {
	tournaments, err := nk.TournamentsGetId(ctx, []string{tournamentID})
	if err != nil {
		logger.Error("Failed to look up tournament %s: %v", tournamentID, err)
		return nil, ErrInternal
	}
	if len(tournaments) == 0 || tournaments[0] == nil {
		return nil, ErrTournamentNotFound
	}
	tournament := tournaments[0]

	bucket, err := s.GetOrRefreshBucket(ctx, logger, nk, userID, tournament)
	if err != nil {
		return nil, err
	}

	records, ownerRecords, prevCursor, nextCursor, err := nk.TournamentRecordsList(ctx, tournamentID, bucket.UserIDs, limit, "", 0)
	if err != nil {
		logger.Error("Failed to list records for tournament %s: %v", tournamentID, err)
		return nil, ErrInternal
	}

	// Member-filtered owner records are not guaranteed rank-sorted by the host.
	SortRecords(ownerRecords)

	return &BucketedTournamentList{
		Records:      records,
		OwnerRecords: ownerRecords,
		NextCursor:   nextCursor,
		PrevCursor:   prevCursor,
	}, nil
}

// DistributeRewards pays out the tournament's reward table across the full
// leaderboard for the cycle that ended at reset. The scan is paginated, payouts
// and notifications are committed as single batches after the scan completes,
// and every failure is logged and swallowed: the end-of-event trigger is
// fire-and-forget and never retried.
func (s *NakamaTournamentsSystem) DistributeRewards(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, tournament *api.Tournament, reset int64) {
	if tournament == nil {
		return
	}

	rewards, err := rewardTableFromTournament(tournament)
	if err != nil {
		logger.Error("Failed to parse reward table for tournament %s: %v", tournament.Id, err)
		return
	}
	if rewards == nil {
		logger.Info("Tournament %s has no reward table, skipping distribution", tournament.Id)
		return
	}

	start := time.Now()

	walletUpdates := make([]*runtime.WalletUpdate, 0, rewardScanPageSize)
	notifications := make([]*runtime.NotificationSend, 0, rewardScanPageSize)

	cursor := ""
	for {
		records, _, _, nextCursor, err := nk.TournamentRecordsList(ctx, tournament.Id, nil, rewardScanPageSize, cursor, reset)
		if err != nil {
			logger.Error("Failed to list records for tournament %s: %v", tournament.Id, err)
			return
		}

		for _, record := range records {
			coins, ok := rewards.RewardForRank(record.Rank, record.Score)
			if !ok {
				if record.Score != 0 {
					logger.Debug("No reward tier configured for rank %d in tournament %s", record.Rank, tournament.Id)
				}
				continue
			}

			walletUpdates = append(walletUpdates, &runtime.WalletUpdate{
				UserID:    record.OwnerId,
				Changeset: map[string]int64{coinsCurrency: coins},
				Metadata: map[string]interface{}{
					"source":        "tournament_reward",
					"tournament_id": tournament.Id,
				},
			})
			notifications = append(notifications, &runtime.NotificationSend{
				UserID:  record.OwnerId,
				Subject: tournament.Title,
				Content: map[string]interface{}{
					"title": tournament.Title,
					"coins": coins,
					"rank":  record.Rank,
				},
				Code:       notificationCodeTournamentReward,
				Persistent: true,
			})
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	if len(walletUpdates) > 0 {
		if _, err := nk.WalletsUpdate(ctx, walletUpdates, true); err != nil {
			logger.Error("Failed to update wallets for tournament %s: %v", tournament.Id, err)
			return
		}
		if err := nk.NotificationsSend(ctx, notifications); err != nil {
			logger.Error("Failed to send reward notifications for tournament %s: %v", tournament.Id, err)
			return
		}
	}

	nk.MetricsTimerRecord(rewardDistributionTimerName, nil, time.Since(start))
	logger.Debug("Distributed rewards to %d players for tournament %s", len(walletUpdates), tournament.Id)
}

// GrantWelcomeGift credits the one-time starting balance to a new account.
func (s *NakamaTournamentsSystem) GrantWelcomeGift(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) {
	amount := int64(defaultInitialGift)
	if s.config != nil && s.config.InitialGift > 0 {
		amount = s.config.InitialGift
	}

	metadata := map[string]interface{}{"source": "welcome_gift"}
	if _, _, err := nk.WalletUpdate(ctx, userID, map[string]int64{coinsCurrency: amount}, metadata, true); err != nil {
		// A missing welcome gift must never block authentication.
		logger.Error("Failed to credit welcome gift to user %s: %v", userID, err)
	}
}

func (s *NakamaTournamentsSystem) getUserBucket(ctx context.Context, nk runtime.NakamaModule, userID string) (*UserBucket, error) {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: bucketsStorageCollection,
			Key:        bucketStorageKey,
			UserID:     userID,
		},
	})
	if err != nil {
		return nil, err
	}

	bucket := &UserBucket{}
	if len(objects) > 0 && objects[0].Value != "" {
		if err := json.Unmarshal([]byte(objects[0].Value), bucket); err != nil {
			return nil, err
		}
	}

	return bucket, nil
}

func (s *NakamaTournamentsSystem) saveUserBucket(ctx context.Context, nk runtime.NakamaModule, userID string, bucket *UserBucket) error {
	data, err := json.Marshal(bucket)
	if err != nil {
		return err
	}

	_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      bucketsStorageCollection,
			Key:             bucketStorageKey,
			UserID:          userID,
			Value:           string(data),
			PermissionRead:  1,
			PermissionWrite: 0,
		},
	})

	return err
}
