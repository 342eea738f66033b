package trades

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickhist/internal/exchange"
	"tickhist/internal/models"
)

var tradeDay = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeTradeSource pages over a fixed universe of trades sorted by ID,
// honoring the 1000-row cap of the real endpoint.
type fakeTradeSource struct {
	universe []exchange.RawAggTrade
	byTime   func(startMs, endMs int64) []exchange.RawAggTrade
}

func (f *fakeTradeSource) GetAggTradesByTime(_ context.Context, _ string, startMs, endMs int64) ([]exchange.RawAggTrade, error) {
	if f.byTime != nil {
		return f.byTime(startMs, endMs), nil
	}
	var page []exchange.RawAggTrade
	for _, t := range f.universe {
		if t.TimeMs >= startMs && t.TimeMs <= endMs {
			page = append(page, t)
			if len(page) == exchange.AggTradePageLimit {
				break
			}
		}
	}
	return page, nil
}

func (f *fakeTradeSource) GetAggTradesFromID(_ context.Context, _ string, fromID int64) ([]exchange.RawAggTrade, error) {
	if fromID < 0 {
		fromID = 0
	}
	var page []exchange.RawAggTrade
	for _, t := range f.universe {
		if t.ID >= fromID {
			page = append(page, t)
			if len(page) == exchange.AggTradePageLimit {
				break
			}
		}
	}
	return page, nil
}

func mkTrade(id int64, at time.Time) exchange.RawAggTrade {
	return exchange.RawAggTrade{
		ID:           id,
		Price:        "29000.5",
		Qty:          "0.25",
		TimeMs:       at.UnixMilli(),
		BuyerIsMaker: id%2 == 0,
	}
}

// tradeUniverse builds trades 5000..5999 on the prior day, 6000..6050 inside
// the test day and 6051..6060 on the following day.
func tradeUniverse(skip map[int64]bool) []exchange.RawAggTrade {
	var all []exchange.RawAggTrade
	for id := int64(5000); id < 6000; id++ {
		all = append(all, mkTrade(id, tradeDay.Add(-12*time.Hour).Add(time.Duration(id)*time.Millisecond)))
	}
	for id := int64(6000); id <= 6050; id++ {
		if skip[id] {
			continue
		}
		all = append(all, mkTrade(id, tradeDay.Add(time.Duration(id-6000)*time.Minute)))
	}
	for id := int64(6051); id <= 6060; id++ {
		all = append(all, mkTrade(id, tradeDay.Add(25*time.Hour)))
	}
	return all
}

func newTestFetcher(source Source) (*Fetcher, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewFetcher(source, slog.New(slog.NewTextHandler(buf, nil))), buf
}

func TestFetchDay(t *testing.T) {
	t.Run("reconstructs the full day from the seed id", func(t *testing.T) {
		fetcher, logs := newTestFetcher(&fakeTradeSource{universe: tradeUniverse(nil)})

		trades, err := fetcher.FetchDay(context.Background(), "BTCUSDT", tradeDay)
		require.NoError(t, err)
		require.Len(t, trades, 51)

		assert.Equal(t, int64(6000), trades[0].ID)
		assert.Equal(t, int64(6050), trades[50].ID)
		for i := 1; i < len(trades); i++ {
			assert.False(t, trades[i].Time.Before(trades[i-1].Time))
		}
		assert.Equal(t, models.SideSell, trades[0].Side)
		assert.Equal(t, models.SideBuy, trades[1].Side)
		assert.Equal(t, "29000.5", trades[0].Price.String())

		assert.Contains(t, logs.String(), "no missing trade ids detected")
	})

	t.Run("missing id in the run is reported but not repaired", func(t *testing.T) {
		universe := tradeUniverse(map[int64]bool{6025: true})
		fetcher, logs := newTestFetcher(&fakeTradeSource{universe: universe})

		trades, err := fetcher.FetchDay(context.Background(), "BTCUSDT", tradeDay)
		require.NoError(t, err)
		assert.Len(t, trades, 50)
		assert.Contains(t, logs.String(), "missing trade ids detected")
		assert.Contains(t, logs.String(), "first=6025")
	})

	t.Run("empty first hour yields an empty day with a warning", func(t *testing.T) {
		// All of the day's trades occur after hour one, so the seed
		// probe finds nothing.
		var universe []exchange.RawAggTrade
		for id := int64(7000); id <= 7010; id++ {
			universe = append(universe, mkTrade(id, tradeDay.Add(5*time.Hour)))
		}
		fetcher, logs := newTestFetcher(&fakeTradeSource{universe: universe})

		trades, err := fetcher.FetchDay(context.Background(), "BTCUSDT", tradeDay)
		require.NoError(t, err)
		assert.Empty(t, trades)
		assert.Contains(t, logs.String(), "no trades found in the first hour")
	})
}

func TestFetchRange(t *testing.T) {
	t.Run("full page halves the window and retries", func(t *testing.T) {
		fullPage := make([]exchange.RawAggTrade, exchange.AggTradePageLimit)
		for i := range fullPage {
			fullPage[i] = mkTrade(int64(9000+i), tradeDay.Add(time.Duration(i)*time.Millisecond))
		}
		calls := 0
		source := &fakeTradeSource{byTime: func(startMs, endMs int64) []exchange.RawAggTrade {
			calls++
			if endMs-startMs >= time.Hour.Milliseconds() {
				return fullPage
			}
			return fullPage[:5]
		}}
		fetcher, logs := newTestFetcher(source)

		trades, err := fetcher.FetchRange(context.Background(), "BTCUSDT", tradeDay, tradeDay.Add(2*time.Hour))
		require.NoError(t, err)

		// The first hour-sized request overflows and is retried at half
		// size; regrowth stays below an hour for the rest of the range.
		assert.Equal(t, 5, calls)
		assert.Len(t, trades, 20)
		assert.Contains(t, logs.String(), "halving window")
	})

	t.Run("window regrows after successful pages", func(t *testing.T) {
		source := &fakeTradeSource{byTime: func(startMs, endMs int64) []exchange.RawAggTrade {
			return []exchange.RawAggTrade{mkTrade(startMs, time.UnixMilli(startMs).UTC())}
		}}
		fetcher, _ := newTestFetcher(source)

		trades, err := fetcher.FetchRange(context.Background(), "BTCUSDT", tradeDay, tradeDay.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Len(t, trades, 3)
	})
}

func TestNormalizeTrades(t *testing.T) {
	t.Run("sorts by time and maps aggressor side", func(t *testing.T) {
		later := mkTrade(2, tradeDay.Add(time.Minute))
		earlier := mkTrade(1, tradeDay)

		trades, err := Normalize([]exchange.RawAggTrade{later, earlier})
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, int64(1), trades[0].ID)
		assert.Equal(t, models.SideBuy, trades[0].Side)
		assert.Equal(t, models.SideSell, trades[1].Side)
	})

	t.Run("rejects malformed quantity", func(t *testing.T) {
		bad := mkTrade(1, tradeDay)
		bad.Qty = "bogus"
		_, err := Normalize([]exchange.RawAggTrade{bad})
		assert.ErrorContains(t, err, "invalid qty")
	})
}
