// Package store persists fetched market data as gzip-compressed parquet
// files in a partitioned directory tree, one file per instrument and UTC day.
// Files are immutable: an existing file is never overwritten, a partial
// write never becomes visible.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"tickhist/internal/models"
	"tickhist/internal/timeutil"
)

// MetadataKey is the parquet key/value metadata key under which the file's
// identity document is embedded.
const MetadataKey = "tickhist"

// Identity names one partition of the store.
type Identity struct {
	SID      string // canonical asset ID
	Venue    string
	Dtype    string // data kind, e.g. bars, bars1m, trades
	Interval string // file-name discriminator, e.g. 1m, trades
}

// Store writes day files under a root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: root, logger: logger}
}

// BuildPath returns the canonical location of one day file:
// {root}/{dtype}/{venue}/{sid}/{YYYYMMDD}/{sid}-{interval}-{YYYYMMDD}.parq
func (s *Store) BuildPath(id Identity, day time.Time) string {
	date := timeutil.ShortDate(day)
	name := fmt.Sprintf("%s-%s-%s.parq", id.SID, id.Interval, date)
	return filepath.Join(s.root, id.Dtype, id.Venue, id.SID, date, name)
}

// Exists reports whether the day file is already present.
func (s *Store) Exists(id Identity, day time.Time) bool {
	_, err := os.Stat(s.BuildPath(id, day))
	return err == nil
}

// barRow is the parquet layout for kline bars. Decimal columns are stored as
// float64, matching the downstream research tooling.
type barRow struct {
	CloseTime           int64   `parquet:"time,timestamp(millisecond)"`
	OpenTime            int64   `parquet:"openTime,timestamp(millisecond)"`
	Open                float64 `parquet:"open"`
	High                float64 `parquet:"high"`
	Low                 float64 `parquet:"low"`
	Close               float64 `parquet:"close"`
	Volume              float64 `parquet:"volume"`
	QuoteAssetVolume    float64 `parquet:"quoteAssetVolume"`
	TradeCount          int64   `parquet:"tradeCount"`
	TakerBuyBaseVolume  float64 `parquet:"takerBuyBaseVolume"`
	TakerBuyQuoteVolume float64 `parquet:"takerBuyQuoteVolume"`
}

// tradeRow is the parquet layout for aggregated trades.
type tradeRow struct {
	Time    int64   `parquet:"time,timestamp(millisecond)"`
	TradeID int64   `parquet:"tradeId"`
	Price   float64 `parquet:"price"`
	Qty     float64 `parquet:"qty"`
	Side    int32   `parquet:"side"`
}

// SaveBars writes one day of bars. It returns true without writing when the
// day file already exists.
func (s *Store) SaveBars(symbol string, day time.Time, bars []models.Bar, id Identity) (bool, error) {
	rows := make([]barRow, len(bars))
	for i, b := range bars {
		rows[i] = barRow{
			CloseTime:           timeutil.ToEpochMs(b.CloseTime),
			OpenTime:            timeutil.ToEpochMs(b.OpenTime),
			Open:                b.Open.InexactFloat64(),
			High:                b.High.InexactFloat64(),
			Low:                 b.Low.InexactFloat64(),
			Close:               b.Close.InexactFloat64(),
			Volume:              b.Volume.InexactFloat64(),
			QuoteAssetVolume:    b.QuoteAssetVolume.InexactFloat64(),
			TradeCount:          b.TradeCount,
			TakerBuyBaseVolume:  b.TakerBuyBaseVolume.InexactFloat64(),
			TakerBuyQuoteVolume: b.TakerBuyQuoteVolume.InexactFloat64(),
		}
	}
	return save(s, symbol, day, id, rows)
}

// SaveTrades writes one day of trades. It returns true without writing when
// the day file already exists.
func (s *Store) SaveTrades(symbol string, day time.Time, trades []models.Trade, id Identity) (bool, error) {
	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow{
			Time:    timeutil.ToEpochMs(t.Time),
			TradeID: t.ID,
			Price:   t.Price.InexactFloat64(),
			Qty:     t.Qty.InexactFloat64(),
			Side:    int32(t.Side),
		}
	}
	return save(s, symbol, day, id, rows)
}

func save[T any](s *Store, symbol string, day time.Time, id Identity, rows []T) (bool, error) {
	path := s.BuildPath(id, day)
	if s.Exists(id, day) {
		s.logger.Info("output file already exists, skipping", "path", path)
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create partition directory: %w", err)
	}

	meta, err := json.Marshal(map[string]string{
		"venue":    id.Venue,
		"symbol":   symbol,
		"sid":      id.SID,
		"dtype":    id.Dtype,
		"interval": id.Interval,
	})
	if err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.parq")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := parquet.NewGenericWriter[T](tmp,
		parquet.Compression(&parquet.Gzip),
		parquet.KeyValueMetadata(MetadataKey, string(meta)),
	)
	if _, err := writer.Write(rows); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		return false, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("failed to publish parquet file: %w", err)
	}
	s.logger.Info("wrote parquet file", "path", path, "rows", len(rows))
	return false, nil
}
