package liveevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	logger := &mockLogger{}

	t.Run("empty config path falls back to defaults", func(t *testing.T) {
		nk := NewMockNakama(t)

		le, err := Init(context.Background(), logger, nk, nil, WithTournamentsSystem("", false))
		require.NoError(t, err)

		system := le.GetTournamentsSystem()
		require.NotNil(t, system)
		assert.Equal(t, SystemTypeTournaments, system.GetType())

		config, ok := system.GetConfig().(*TournamentsConfig)
		require.True(t, ok)
		assert.Zero(t, config.InitialGift)
	})

	t.Run("no configs yields an empty hub", func(t *testing.T) {
		nk := NewMockNakama(t)

		le, err := Init(context.Background(), logger, nk, nil)
		require.NoError(t, err)
		assert.Nil(t, le.GetTournamentsSystem())
	})
}
