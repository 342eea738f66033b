package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickhist/internal/models"
)

var storeDay = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleTrades() []models.Trade {
	return []models.Trade{
		{ID: 100, Price: decimal.RequireFromString("29000.5"), Qty: decimal.RequireFromString("0.25"), Time: storeDay.Add(time.Minute), Side: models.SideBuy},
		{ID: 101, Price: decimal.RequireFromString("29001.0"), Qty: decimal.RequireFromString("0.10"), Time: storeDay.Add(2 * time.Minute), Side: models.SideSell},
	}
}

func TestBuildPath(t *testing.T) {
	s := New("/data", nil)
	id := Identity{SID: "BTCUSDT_BNC", Venue: "binance", Dtype: "trades", Interval: "trades"}
	want := filepath.Join("/data", "trades", "binance", "BTCUSDT_BNC", "20210101",
		"BTCUSDT_BNC-trades-20210101.parq")
	assert.Equal(t, want, s.BuildPath(id, storeDay))
}

func TestSaveTrades(t *testing.T) {
	s := newTestStore(t)
	id := Identity{SID: "BTCUSDT_BNC", Venue: "binance", Dtype: "trades", Interval: "trades"}

	skipped, err := s.SaveTrades("BTCUSDT", storeDay, sampleTrades(), id)
	require.NoError(t, err)
	assert.False(t, skipped)
	require.True(t, s.Exists(id, storeDay))

	path := s.BuildPath(id, storeDay)
	rows, err := parquet.ReadFile[tradeRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(100), rows[0].TradeID)
	assert.Equal(t, 29000.5, rows[0].Price)
	assert.Equal(t, int32(models.SideSell), rows[1].Side)
	assert.Equal(t, storeDay.Add(time.Minute).UnixMilli(), rows[0].Time)

	t.Run("embeds identity metadata", func(t *testing.T) {
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		st, err := f.Stat()
		require.NoError(t, err)
		pf, err := parquet.OpenFile(f, st.Size())
		require.NoError(t, err)

		var meta string
		for _, kv := range pf.Metadata().KeyValueMetadata {
			if kv.Key == MetadataKey {
				meta = kv.Value
			}
		}
		assert.Contains(t, meta, `"venue":"binance"`)
		assert.Contains(t, meta, `"sid":"BTCUSDT_BNC"`)
		assert.Contains(t, meta, `"symbol":"BTCUSDT"`)
	})

	t.Run("second save is skipped", func(t *testing.T) {
		before, err := os.Stat(path)
		require.NoError(t, err)

		skipped, err := s.SaveTrades("BTCUSDT", storeDay, nil, id)
		require.NoError(t, err)
		assert.True(t, skipped)

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, before.ModTime(), after.ModTime())
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestSaveBars(t *testing.T) {
	s := newTestStore(t)
	id := Identity{SID: "BTCUSD_PF_BNC", Venue: "binance_coinfut", Dtype: "bars1m", Interval: "bars1m"}

	bars := []models.Bar{{
		OpenTime:  storeDay,
		CloseTime: storeDay.Add(time.Minute - time.Millisecond),
		Open:      decimal.RequireFromString("100.0"),
		High:      decimal.RequireFromString("101.0"),
		Low:       decimal.RequireFromString("99.0"),
		Close:     decimal.RequireFromString("100.5"),
		Volume:    decimal.RequireFromString("12.0"),
	}}

	skipped, err := s.SaveBars("BTCUSD_PERP", storeDay, bars, id)
	require.NoError(t, err)
	assert.False(t, skipped)

	rows, err := parquet.ReadFile[barRow](s.BuildPath(id, storeDay))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.5, rows[0].Close)
	assert.Equal(t, storeDay.UnixMilli(), rows[0].OpenTime)
}

func TestReadParquet(t *testing.T) {
	s := newTestStore(t)
	id := Identity{SID: "BTCUSDT_BNC", Venue: "binance", Dtype: "trades", Interval: "trades"}

	_, err := s.SaveTrades("BTCUSDT", storeDay, sampleTrades(), id)
	require.NoError(t, err)

	result, err := s.ReadParquet(context.Background(), id, storeDay, 1)
	require.NoError(t, err)
	assert.Contains(t, result.Columns, "tradeId")
	assert.Contains(t, result.Columns, "price")
	require.Len(t, result.Rows, 1)
}
