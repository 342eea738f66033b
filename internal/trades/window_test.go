package trades

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextWindowSize(t *testing.T) {
	t.Run("full page halves the window", func(t *testing.T) {
		assert.Equal(t, 30*time.Minute, NextWindowSize(time.Hour, true))
		assert.Equal(t, 15*time.Minute, NextWindowSize(30*time.Minute, true))
	})

	t.Run("repeated halving never reaches zero", func(t *testing.T) {
		w := time.Hour
		for i := 0; i < 100; i++ {
			w = NextWindowSize(w, true)
			assert.Greater(t, w, time.Duration(0))
		}
		assert.Equal(t, time.Second, w)
	})

	t.Run("partial page grows the window by a quarter", func(t *testing.T) {
		assert.Equal(t, 25*time.Minute, NextWindowSize(20*time.Minute, false))
	})

	t.Run("growth is non-decreasing and capped at one hour", func(t *testing.T) {
		w := 10 * time.Minute
		for i := 0; i < 50; i++ {
			next := NextWindowSize(w, false)
			assert.GreaterOrEqual(t, next, w)
			assert.LessOrEqual(t, next, MaxWindow)
			w = next
		}
		assert.Equal(t, MaxWindow, w)
		assert.Equal(t, MaxWindow, NextWindowSize(MaxWindow, false))
	})
}
