package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	t.Run("accepts every listed interval", func(t *testing.T) {
		for _, s := range ValidIntervals() {
			iv, err := ParseInterval(s)
			require.NoError(t, err, s)
			assert.Positive(t, iv.Minutes(), s)
		}
	})

	t.Run("rejects unknown interval with the valid set", func(t *testing.T) {
		_, err := ParseInterval("7m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M")
	})
}

func TestIntervalMinutes(t *testing.T) {
	assert.Equal(t, 1, Interval("1m").Minutes())
	assert.Equal(t, 60, Interval("1h").Minutes())
	assert.Equal(t, 1440, Interval("1d").Minutes())
}

func TestSideFromBuyerMaker(t *testing.T) {
	assert.Equal(t, SideSell, SideFromBuyerMaker(true))
	assert.Equal(t, SideBuy, SideFromBuyerMaker(false))
	assert.Equal(t, "buy", SideBuy.String())
	assert.Equal(t, "sell", SideSell.String())
}
