package liveevents

import (
	"errors"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAfterAuthenticateDevice(t *testing.T) {
	logger := &mockLogger{}

	t.Run("credits new accounts", func(t *testing.T) {
		nk := NewMockNakama(t)
		hook := afterAuthenticateDevice(testLiveEvents())

		nk.On("WalletUpdate", mock.Anything, "user-1", map[string]int64{coinsCurrency: 100}, mock.Anything, true).
			Return(nil, nil, nil)

		err := hook(userContext("user-1"), logger, nil, nk, &api.Session{Created: true}, &api.AuthenticateDeviceRequest{})
		require.NoError(t, err)
		nk.AssertExpectations(t)
	})

	t.Run("skips existing accounts", func(t *testing.T) {
		nk := NewMockNakama(t)
		hook := afterAuthenticateDevice(testLiveEvents())

		err := hook(userContext("user-1"), logger, nil, nk, &api.Session{Created: false}, &api.AuthenticateDeviceRequest{})
		require.NoError(t, err)
		nk.AssertNotCalled(t, "WalletUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wallet failure never fails authentication", func(t *testing.T) {
		nk := NewMockNakama(t)
		hook := afterAuthenticateDevice(testLiveEvents())

		nk.On("WalletUpdate", mock.Anything, "user-1", mock.Anything, mock.Anything, true).
			Return(nil, nil, errors.New("ledger down"))

		err := hook(userContext("user-1"), logger, nil, nk, &api.Session{Created: true}, &api.AuthenticateDeviceRequest{})
		assert.NoError(t, err)
	})
}

func TestTournamentEnd(t *testing.T) {
	logger := &mockLogger{}

	t.Run("distributes rewards for the ended cycle", func(t *testing.T) {
		nk := NewMockNakama(t)
		hook := tournamentEnd(testLiveEvents())

		tournament := &api.Tournament{
			Id:       "t1",
			Title:    "Summer Clash",
			Metadata: `{"rewards":{"first":{"coins":100}}}`,
		}
		nk.On("TournamentRecordsList", mock.Anything, "t1", []string(nil), rewardScanPageSize, "", int64(9000)).
			Return([]*api.LeaderboardRecord{{OwnerId: "u1", Score: 10, Rank: 1}}, nil, "", "", nil)
		nk.On("WalletsUpdate", mock.Anything, mock.Anything, true).Return(nil, nil)
		nk.On("NotificationsSend", mock.Anything, mock.Anything).Return(nil)
		nk.On("MetricsTimerRecord", rewardDistributionTimerName, map[string]string(nil), mock.Anything).Return()

		err := hook(userContext(""), logger, nil, nk, tournament, 9100, 9000)
		require.NoError(t, err)
		nk.AssertExpectations(t)
	})

	t.Run("always returns nil to the host", func(t *testing.T) {
		nk := NewMockNakama(t)
		hook := tournamentEnd(testLiveEvents())

		err := hook(userContext(""), logger, nil, nk, &api.Tournament{Id: "t1"}, 9100, 9000)
		assert.NoError(t, err)
	})
}
