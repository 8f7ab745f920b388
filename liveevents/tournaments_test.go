package liveevents

import (
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestTierForRank(t *testing.T) {
	assert.Equal(t, RewardTierNone, TierForRank(0))
	assert.Equal(t, RewardTierNone, TierForRank(-5))
	assert.Equal(t, RewardTierFirst, TierForRank(1))
	assert.Equal(t, RewardTierSecond, TierForRank(2))
	assert.Equal(t, RewardTierThird, TierForRank(3))
	assert.Equal(t, RewardTierRest, TierForRank(4))
	assert.Equal(t, RewardTierRest, TierForRank(1000))
}

func TestRewardForRank(t *testing.T) {
	rewards := &RewardTable{
		First:  &TournamentReward{Coins: 500},
		Second: &TournamentReward{Coins: 250.4},
		Third:  &TournamentReward{Coins: 100.5},
		Rest:   &TournamentReward{Coins: 25},
	}

	t.Run("tiers resolve by rank", func(t *testing.T) {
		coins, ok := rewards.RewardForRank(1, 10)
		require.True(t, ok)
		assert.Equal(t, int64(500), coins)

		coins, ok = rewards.RewardForRank(4, 10)
		require.True(t, ok)
		assert.Equal(t, int64(25), coins)

		// Every rank past third resolves to the same payout.
		coins, ok = rewards.RewardForRank(999, 10)
		require.True(t, ok)
		assert.Equal(t, int64(25), coins)
	})

	t.Run("fractional payouts round to nearest coin", func(t *testing.T) {
		coins, ok := rewards.RewardForRank(2, 10)
		require.True(t, ok)
		assert.Equal(t, int64(250), coins)

		coins, ok = rewards.RewardForRank(3, 10)
		require.True(t, ok)
		assert.Equal(t, int64(101), coins)
	})

	t.Run("zero score earns nothing at any rank", func(t *testing.T) {
		_, ok := rewards.RewardForRank(1, 0)
		assert.False(t, ok)
	})

	t.Run("unconfigured tier earns nothing", func(t *testing.T) {
		partial := &RewardTable{First: &TournamentReward{Coins: 100}}

		coins, ok := partial.RewardForRank(1, 10)
		require.True(t, ok)
		assert.Equal(t, int64(100), coins)

		_, ok = partial.RewardForRank(2, 10)
		assert.False(t, ok)
		_, ok = partial.RewardForRank(4, 10)
		assert.False(t, ok)
	})

	t.Run("invalid rank earns nothing", func(t *testing.T) {
		_, ok := rewards.RewardForRank(0, 10)
		assert.False(t, ok)
	})
}

func TestRewardTableFromTournament(t *testing.T) {
	t.Run("empty metadata means no table", func(t *testing.T) {
		rewards, err := rewardTableFromTournament(&api.Tournament{Id: "t1"})
		require.NoError(t, err)
		assert.Nil(t, rewards)
	})

	t.Run("metadata without rewards means no table", func(t *testing.T) {
		rewards, err := rewardTableFromTournament(&api.Tournament{Id: "t1", Metadata: `{"theme":"winter"}`})
		require.NoError(t, err)
		assert.Nil(t, rewards)
	})

	t.Run("rewards parse from metadata", func(t *testing.T) {
		tournament := &api.Tournament{
			Id:       "t1",
			Metadata: `{"rewards":{"first":{"coins":500},"rest":{"coins":12.6}}}`,
		}
		rewards, err := rewardTableFromTournament(tournament)
		require.NoError(t, err)
		require.NotNil(t, rewards)

		coins, ok := rewards.RewardForRank(1, 5)
		require.True(t, ok)
		assert.Equal(t, int64(500), coins)

		coins, ok = rewards.RewardForRank(10, 5)
		require.True(t, ok)
		assert.Equal(t, int64(13), coins)
	})

	t.Run("malformed metadata is an error", func(t *testing.T) {
		_, err := rewardTableFromTournament(&api.Tournament{Id: "t1", Metadata: `{"rewards":`})
		assert.Error(t, err)
	})
}

func TestSortRecords(t *testing.T) {
	records := []*api.LeaderboardRecord{
		{OwnerId: "u1", Username: wrapperspb.String("one"), Score: 30, Rank: 7},
		{OwnerId: "u2", Username: wrapperspb.String("two"), Score: 90, Rank: 2},
		{OwnerId: "u3", Username: wrapperspb.String("three"), Score: 60, Rank: 4},
	}

	SortRecords(records)

	assert.Equal(t, "u2", records[0].OwnerId)
	assert.Equal(t, "u3", records[1].OwnerId)
	assert.Equal(t, "u1", records[2].OwnerId)
	for i, record := range records {
		assert.Equal(t, int64(i+1), record.Rank)
	}

	// Re-sorting an already sorted slice is a no-op.
	SortRecords(records)
	assert.Equal(t, "u2", records[0].OwnerId)
	assert.Equal(t, int64(1), records[0].Rank)
}
