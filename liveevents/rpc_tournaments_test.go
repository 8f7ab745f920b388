package liveevents

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLiveEvents() *liveEventsImpl {
	return &liveEventsImpl{
		systems: map[SystemType]System{
			SystemTypeTournaments: NewNakamaTournamentsSystem(&TournamentsConfig{}),
		},
	}
}

func userContext(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}

func TestRpcTournamentCreate(t *testing.T) {
	logger := &mockLogger{}

	t.Run("rejects session users", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentCreate(testLiveEvents())

		_, err := handler(userContext("user-1"), logger, nil, nk, `{"id":"evt","start_time":1,"duration":60,"rewards":{}}`)
		assert.ErrorIs(t, err, ErrSessionForbidden)
		nk.AssertNotCalled(t, "TournamentCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("creates for server callers", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentCreate(testLiveEvents())

		nk.On("TournamentCreate", mock.Anything, "evt", true, "desc", "incr", "",
			mock.Anything, "evt", "", 0, 1700000000, 0, 3600, math.MaxInt32, 0, false, true).Return(nil)

		payload := `{"id":"evt","start_time":1700000000,"duration":3600,"rewards":{"first":{"coins":100}}}`
		out, err := handler(context.Background(), logger, nil, nk, payload)
		require.NoError(t, err)

		response := &TournamentCreateResponse{}
		require.NoError(t, json.Unmarshal([]byte(out), response))
		assert.True(t, response.Success)
		nk.AssertExpectations(t)
	})

	t.Run("malformed payload surfaces as internal", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentCreate(testLiveEvents())

		_, err := handler(context.Background(), logger, nil, nk, `{"id":`)
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("invalid request surfaces as internal", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentCreate(testLiveEvents())

		_, err := handler(context.Background(), logger, nil, nk, `{"id":"evt","start_time":0,"duration":0}`)
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestRpcTournamentGetBucketed(t *testing.T) {
	logger := &mockLogger{}

	t.Run("rejects callers without a session", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentGetBucketed(testLiveEvents())

		_, err := handler(context.Background(), logger, nil, nk, `{"id":"t1","limit":20}`)
		assert.ErrorIs(t, err, ErrSessionRequired)
	})

	t.Run("returns the bucketed view for a session user", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentGetBucketed(testLiveEvents())

		nk.On("TournamentsGetId", mock.Anything, []string{"t1"}).
			Return([]*api.Tournament{{Id: "t1", EndActive: 5000}}, nil)
		nk.On("StorageRead", mock.Anything, mock.Anything).Return(storedBucket(t, 5000, BucketSize), nil)
		nk.On("TournamentRecordsList", mock.Anything, "t1", mock.Anything, 20, "", int64(0)).
			Return(nil, []*api.LeaderboardRecord{
				{OwnerId: "peer-01", Score: 10},
				{OwnerId: "self", Score: 40},
			}, "", "", nil)

		out, err := handler(userContext("self"), logger, nil, nk, `{"id":"t1","limit":20}`)
		require.NoError(t, err)

		list := &BucketedTournamentList{}
		require.NoError(t, json.Unmarshal([]byte(out), list))
		require.Len(t, list.OwnerRecords, 2)
		assert.Equal(t, "self", list.OwnerRecords[0].OwnerId)
		assert.Equal(t, int64(1), list.OwnerRecords[0].Rank)
	})

	t.Run("unknown tournament surfaces as internal", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentGetBucketed(testLiveEvents())

		nk.On("TournamentsGetId", mock.Anything, []string{"missing"}).Return(nil, nil)

		_, err := handler(userContext("self"), logger, nil, nk, `{"id":"missing","limit":20}`)
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("invalid payload surfaces as internal", func(t *testing.T) {
		nk := NewMockNakama(t)
		handler := rpcTournamentGetBucketed(testLiveEvents())

		for _, payload := range []string{`{"id":`, `{"id":"","limit":20}`, `{"id":"t1","limit":0}`} {
			_, err := handler(userContext("self"), logger, nil, nk, payload)
			assert.ErrorIs(t, err, ErrInternal)
		}
	})
}
