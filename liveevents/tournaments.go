package liveevents

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	RpcIdTournamentCreate      = "server_create_live_event"
	RpcIdTournamentGetBucketed = "get_bucketed_tournament"
)

const (
	// BucketSize is the number of peers sampled into a player's comparison cohort.
	BucketSize = 15

	// rewardScanPageSize is the fixed page size used by the end-of-event reward scan.
	rewardScanPageSize = 100

	// defaultInitialGift is the one-time coin balance credited to newly created accounts.
	defaultInitialGift = 100

	bucketsStorageCollection = "buckets"
	bucketStorageKey         = "bucket"

	coinsCurrency = "coins"

	notificationCodeTournamentReward = 1101
)

// TournamentsConfig is the data definition for the TournamentsSystem type.
type TournamentsConfig struct {
	// InitialGift overrides the coin amount credited to a brand new account. Zero means the default.
	InitialGift int64 `json:"initial_gift,omitempty"`
}

// RewardTier identifies one of the fixed reward classes of a live event.
type RewardTier int

const (
	RewardTierNone RewardTier = iota
	RewardTierFirst
	RewardTierSecond
	RewardTierThird
	RewardTierRest
)

// TierForRank maps a 1-based leaderboard rank to its reward tier. Ranks of 4 and
// above all share the rest tier.
func TierForRank(rank int64) RewardTier {
	switch {
	case rank <= 0:
		return RewardTierNone
	case rank == 1:
		return RewardTierFirst
	case rank == 2:
		return RewardTierSecond
	case rank == 3:
		return RewardTierThird
	default:
		return RewardTierRest
	}
}

// TournamentReward is a single tier's payout. Coins may arrive as a fractional
// number from upstream configuration and are rounded before any ledger use.
type TournamentReward struct {
	Coins float64 `json:"coins"`
}

// RewardTable maps the fixed reward tiers to payouts. A nil tier is a valid,
// unconfigured tier.
type RewardTable struct {
	First  *TournamentReward `json:"first,omitempty"`
	Second *TournamentReward `json:"second,omitempty"`
	Third  *TournamentReward `json:"third,omitempty"`
	Rest   *TournamentReward `json:"rest,omitempty"`
}

// Tier returns the payout configured for the given tier, if any.
func (r *RewardTable) Tier(tier RewardTier) (*TournamentReward, bool) {
	if r == nil {
		return nil, false
	}
	var reward *TournamentReward
	switch tier {
	case RewardTierFirst:
		reward = r.First
	case RewardTierSecond:
		reward = r.Second
	case RewardTierThird:
		reward = r.Third
	case RewardTierRest:
		reward = r.Rest
	}
	if reward == nil {
		return nil, false
	}
	return reward, true
}

// RewardForRank resolves the rounded coin amount for a ranked, scored record.
// Zero-score records never earn a reward, whatever their rank. An unconfigured
// tier resolves to no reward.
func (r *RewardTable) RewardForRank(rank, score int64) (int64, bool) {
	if score == 0 {
		return 0, false
	}
	reward, ok := r.Tier(TierForRank(rank))
	if !ok {
		return 0, false
	}
	// Ledger changesets are integer typed; fractional configuration values are
	// rounded to the nearest whole coin.
	return int64(math.Round(reward.Coins)), true
}

// tournamentMetadata is the metadata document stored on a live event tournament.
type tournamentMetadata struct {
	Rewards *RewardTable `json:"rewards,omitempty"`
}

// rewardTableFromTournament extracts the reward table embedded in a
// tournament's metadata document. A tournament without one returns nil.
func rewardTableFromTournament(tournament *api.Tournament) (*RewardTable, error) {
	if tournament.Metadata == "" {
		return nil, nil
	}
	var metadata tournamentMetadata
	if err := json.Unmarshal([]byte(tournament.Metadata), &metadata); err != nil {
		return nil, err
	}
	return metadata.Rewards, nil
}

// UserBucket is the persisted comparison cohort of a single player. The member
// list never contains the owning player; the owner id is appended only to the
// copy returned to callers.
type UserBucket struct {
	ResetTimeUnix int64    `json:"resetTimeUnix"`
	UserIDs       []string `json:"userIds"`
}

// SortRecords orders leaderboard records by descending score and reassigns
// contiguous 1-based ranks. Listing calls restricted to a member set do not
// guarantee pre-sorted owner records, so callers re-sort before returning them.
func SortRecords(records []*api.LeaderboardRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	for i, record := range records {
		record.Rank = int64(i + 1)
	}
}

// TournamentCreateRequest is the payload of the server_create_live_event RPC.
type TournamentCreateRequest struct {
	Id            string       `json:"id,omitempty"`
	StartTime     int64        `json:"start_time"`
	Duration      int64        `json:"duration"`
	ResetSchedule string       `json:"reset_schedule,omitempty"`
	Rewards       *RewardTable `json:"rewards"`
}

// TournamentCreateResponse is the payload returned by the server_create_live_event RPC.
type TournamentCreateResponse struct {
	Success bool `json:"success"`
}

// TournamentGetBucketedRequest is the payload of the get_bucketed_tournament RPC.
type TournamentGetBucketedRequest struct {
	Id    string `json:"id"`
	Limit int    `json:"limit"`
}

// BucketedTournamentList mirrors the host listing shape for a bucketed view.
// OwnerRecords are sorted by descending score with contiguous ranks.
type BucketedTournamentList struct {
	Records      []*api.LeaderboardRecord `json:"records"`
	OwnerRecords []*api.LeaderboardRecord `json:"ownerRecords"`
	NextCursor   string                   `json:"nextCursor,omitempty"`
	PrevCursor   string                   `json:"prevCursor,omitempty"`
}

// The TournamentsSystem manages time-boxed live events: creation, bucketed
// leaderboard views and end-of-event reward distribution.
type TournamentsSystem interface {
	System

	// CreateTournament creates a live event tournament and returns its id.
	CreateTournament(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, req *TournamentCreateRequest) (string, error)

	// GetOrRefreshBucket loads the player's comparison cohort for the tournament,
	// regenerating it when the reset cycle has rolled over or the stored cohort is
	// short-handed. The returned bucket always includes the player's own id.
	GetOrRefreshBucket(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, tournament *api.Tournament) (*UserBucket, error)

	// GetBucketedTournament returns the player's bucket-scoped leaderboard view.
	GetBucketedTournament(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, tournamentID string, limit int) (*BucketedTournamentList, error)

	// DistributeRewards pays out the tournament's configured reward table across
	// the full leaderboard for the cycle that ended at reset. Best effort: all
	// failures are logged and swallowed.
	DistributeRewards(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, tournament *api.Tournament, reset int64)

	// GrantWelcomeGift credits the one-time starting balance to a new account.
	// Best effort: failures are logged and swallowed.
	GrantWelcomeGift(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string)
}
