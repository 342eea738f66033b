// Package klines fetches one UTC day of kline bars by splitting the day into
// time-bounded sub-requests, normalizing the raw rows into typed bars and
// validating the result against the expected row count.
package klines

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tickhist/internal/exchange"
	"tickhist/internal/models"
	"tickhist/internal/timeutil"
)

// expectedRowsPerDay is the bar count of a full day at 1m resolution.
const expectedRowsPerDay = 1440

// Source is the part of the exchange client the fetcher needs.
type Source interface {
	GetKlines(ctx context.Context, symbol string, startMs, endMs int64, interval string) ([]exchange.RawKline, error)
}

// Fetcher retrieves and normalizes one day of bars at a time.
type Fetcher struct {
	source       Source
	requestLimit int // maximum rows one request may return
	logger       *slog.Logger
}

// NewFetcher creates a fetcher. requestLimit is the venue's per-request row
// cap (1000 on spot, 1500 on coin-margined futures).
func NewFetcher(source Source, requestLimit int, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, requestLimit: requestLimit, logger: logger}
}

// FetchDay retrieves all bars of the UTC day containing day, sorted ascending
// by close time and trimmed to the day's boundaries.
func (f *Fetcher) FetchDay(ctx context.Context, symbol string, day time.Time, interval models.Interval) ([]models.Bar, error) {
	dayStart, dayEnd := timeutil.DayBounds(day)
	f.logger.Info("fetching klines for date", "symbol", symbol, "date", timeutil.ShortDate(dayStart), "interval", interval)

	step := time.Duration(f.requestLimit*interval.Minutes()) * time.Minute

	var raws []exchange.RawKline
	for lower := dayStart; lower.Before(dayEnd); {
		upper := lower.Add(step)
		if upper.After(dayEnd) {
			upper = dayEnd
		}

		reqLower := timeutil.ToEpochMs(lower)
		reqUpper := timeutil.ToEpochMs(upper)

		page, err := f.source.GetKlines(ctx, symbol, reqLower, reqUpper, interval.String())
		if err != nil {
			return nil, err
		}
		f.logger.Debug("request returned rows", "rows", len(page))

		// The exchange may hand back rows outside the requested bound;
		// keep only open times within [reqLower, reqUpper).
		kept := page[:0]
		for _, k := range page {
			if k.OpenTimeMs >= reqLower && k.OpenTimeMs < reqUpper {
				kept = append(kept, k)
			}
		}
		if len(kept) != len(page) {
			f.logger.Info("retained rows within actual request range", "retained", len(kept), "returned", len(page))
		}

		raws = append(raws, kept...)
		lower = upper
	}

	bars, err := Normalize(raws, f.logger)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		f.logger.Warn("no data retrieved", "symbol", symbol, "date", timeutil.ShortDate(dayStart))
	}

	// Trim to the requested day.
	trimmed := bars[:0]
	for _, b := range bars {
		if !b.CloseTime.Before(dayStart) && b.CloseTime.Before(dayEnd) {
			trimmed = append(trimmed, b)
		}
	}
	bars = trimmed

	if interval == "1m" && len(bars) != expectedRowsPerDay {
		f.logger.Warn("row count mismatch", "expected", expectedRowsPerDay, "actual", len(bars))
	}

	return bars, nil
}

// Normalize converts raw kline rows into typed bars keyed by close time,
// sorted ascending. Rows sharing a close time are collapsed to the first
// occurrence, with the dropped count logged.
func Normalize(raws []exchange.RawKline, logger *slog.Logger) ([]models.Bar, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bars := make([]models.Bar, 0, len(raws))
	for _, raw := range raws {
		bar, err := toBar(raw)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].CloseTime.Before(bars[j].CloseTime)
	})

	deduped := bars[:0]
	dropped := 0
	for i, b := range bars {
		if i > 0 && b.CloseTime.Equal(deduped[len(deduped)-1].CloseTime) {
			dropped++
			continue
		}
		deduped = append(deduped, b)
	}
	if dropped > 0 {
		logger.Warn("dropped duplicate close times, keeping first occurrence", "dropped", dropped)
	}

	return deduped, nil
}

func toBar(raw exchange.RawKline) (models.Bar, error) {
	fields := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"open", raw.Open, nil},
		{"high", raw.High, nil},
		{"low", raw.Low, nil},
		{"close", raw.Close, nil},
		{"volume", raw.Volume, nil},
		{"quoteAssetVolume", raw.QuoteAssetVolume, nil},
		{"takerBuyBaseVolume", raw.TakerBuyBaseVolume, nil},
		{"takerBuyQuoteVolume", raw.TakerBuyQuoteVolume, nil},
	}

	bar := models.Bar{
		OpenTime:   timeutil.FromEpochMs(raw.OpenTimeMs),
		CloseTime:  timeutil.FromEpochMs(raw.CloseTimeMs),
		TradeCount: raw.TradeCount,
	}
	fields[0].dst = &bar.Open
	fields[1].dst = &bar.High
	fields[2].dst = &bar.Low
	fields[3].dst = &bar.Close
	fields[4].dst = &bar.Volume
	fields[5].dst = &bar.QuoteAssetVolume
	fields[6].dst = &bar.TakerBuyBaseVolume
	fields[7].dst = &bar.TakerBuyQuoteVolume

	for _, f := range fields {
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return models.Bar{}, fmt.Errorf("invalid %s '%s' at open time %d: %w", f.name, f.value, raw.OpenTimeMs, err)
		}
		*f.dst = d
	}
	return bar, nil
}
