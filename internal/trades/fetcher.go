// Package trades reconstructs the complete aggregated-trade history of a UTC
// day. Trade pages are addressable by ID, not by time, so the fetcher first
// probes a time range to find any trade inside the day, walks the ID space
// backward to the day's earliest trade, then pages forward until the day is
// exhausted. The reconstructed ID run is audited for gaps.
package trades

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tickhist/internal/exchange"
	"tickhist/internal/gaps"
	"tickhist/internal/models"
	"tickhist/internal/timeutil"
)

// seekStep is how far the backward probe jumps per iteration, matching the
// per-request row cap of the aggTrades endpoint.
const seekStep = exchange.AggTradePageLimit

// Source is the part of the exchange client the fetcher needs.
type Source interface {
	GetAggTradesByTime(ctx context.Context, symbol string, startMs, endMs int64) ([]exchange.RawAggTrade, error)
	GetAggTradesFromID(ctx context.Context, symbol string, fromID int64) ([]exchange.RawAggTrade, error)
}

// Fetcher retrieves one day of trades at a time.
type Fetcher struct {
	source Source
	logger *slog.Logger
}

func NewFetcher(source Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, logger: logger}
}

// FetchDay retrieves every trade of the UTC day containing day, sorted
// ascending by time. Missing trade IDs in the reconstructed sequence are
// logged as a warning; they are never repaired.
func (f *Fetcher) FetchDay(ctx context.Context, symbol string, day time.Time) ([]models.Trade, error) {
	dayStart, dayEnd := timeutil.DayBounds(day)
	begMs := timeutil.ToEpochMs(dayStart)
	endMs := timeutil.ToEpochMs(dayEnd)
	f.logger.Info("fetching trades for date", "symbol", symbol, "date", timeutil.ShortDate(dayStart))

	seed, found, err := f.seekAny(ctx, symbol, begMs)
	if err != nil {
		return nil, err
	}
	if !found {
		// The seed probe only covers the first hour of the day and does
		// not widen on a miss, so an illiquid day comes back empty even
		// if trades exist later in the day.
		f.logger.Warn("no trades found in the first hour of the day, returning an empty day",
			"symbol", symbol, "date", timeutil.ShortDate(dayStart))
		return nil, nil
	}
	f.logger.Info("initial seek trade id", "trade_id", seed)

	earliest, err := f.seekEarliest(ctx, symbol, begMs, endMs, seed)
	if err != nil {
		return nil, err
	}
	f.logger.Info("window earliest trade id", "trade_id", earliest)

	raws, err := f.pageForward(ctx, symbol, begMs, endMs, earliest)
	if err != nil {
		return nil, err
	}

	trades, err := Normalize(raws)
	if err != nil {
		return nil, err
	}
	f.reportGaps(trades)
	return trades, nil
}

// seekAny issues one ranged request over the first hour of the day and
// returns the minimum trade ID observed, if any.
func (f *Fetcher) seekAny(ctx context.Context, symbol string, begMs int64) (int64, bool, error) {
	f.logger.Info("searching for any trade within window of interest")
	endMs := begMs + time.Hour.Milliseconds()

	page, err := f.source.GetAggTradesByTime(ctx, symbol, begMs, endMs)
	if err != nil {
		return 0, false, err
	}
	if len(page) == 0 {
		return 0, false, nil
	}

	seed := page[0].ID
	for _, t := range page[1:] {
		if t.ID < seed {
			seed = t.ID
		}
	}
	return seed, true, nil
}

// seekEarliest walks the ID space backward from the seed in steps of
// seekStep, keeping the minimum in-window ID found so far. It stops when a
// probe yields no in-window rows or stops improving on the known minimum.
func (f *Fetcher) seekEarliest(ctx context.Context, symbol string, begMs, endMs, seed int64) (int64, error) {
	f.logger.Info("searching for earliest trade within window of interest")
	earliest := seed
	for {
		page, err := f.source.GetAggTradesFromID(ctx, symbol, earliest-seekStep)
		if err != nil {
			return 0, err
		}

		inWindow := filterInWindow(page, begMs, endMs)
		if len(inWindow) == 0 {
			break
		}
		minID := inWindow[0].ID
		for _, t := range inWindow[1:] {
			if t.ID < minID {
				minID = t.ID
			}
		}
		if minID == earliest {
			break
		}
		f.logger.Info("found new earliest trade id", "trade_id", minID)
		earliest = minID
	}
	return earliest, nil
}

// pageForward accumulates trades by ID paging from the earliest ID until a
// page has no in-window rows left.
func (f *Fetcher) pageForward(ctx context.Context, symbol string, begMs, endMs, fromID int64) ([]exchange.RawAggTrade, error) {
	f.logger.Info("fetching all trades for window")

	var all []exchange.RawAggTrade
	cursor := fromID
	for {
		page, err := f.source.GetAggTradesFromID(ctx, symbol, cursor)
		if err != nil {
			return nil, err
		}

		inWindow := filterInWindow(page, begMs, endMs)
		if len(inWindow) == 0 {
			break
		}
		all = append(all, inWindow...)

		maxID, maxTime := inWindow[0].ID, inWindow[0].TimeMs
		for _, t := range inWindow[1:] {
			if t.ID > maxID {
				maxID = t.ID
			}
			if t.TimeMs > maxTime {
				maxTime = t.TimeMs
			}
		}
		cursor = maxID + 1
		f.logger.Info("trades accumulated", "count", len(all), "time", timeutil.FromEpochMs(maxTime))
	}
	return all, nil
}

// FetchRange retrieves trades over [from, upto) using time-ranged requests
// with an adaptively sized window. A range whose page comes back full is
// retried with a halved window before the cursor advances.
func (f *Fetcher) FetchRange(ctx context.Context, symbol string, from, upto time.Time) ([]models.Trade, error) {
	tsFrom := timeutil.ToEpochMs(from)
	tsTo := timeutil.ToEpochMs(upto)
	f.logger.Info("fetching trades by time range", "symbol", symbol, "from", tsFrom, "to", tsTo)

	var raws []exchange.RawAggTrade
	window := MaxWindow
	for ts0 := tsFrom; ts0 < tsTo; {
		var page []exchange.RawAggTrade
		var ts1 int64
		for {
			ts1 = ts0 + window.Milliseconds()
			if ts1 > tsTo {
				ts1 = tsTo
			}
			var err error
			page, err = f.source.GetAggTradesByTime(ctx, symbol, ts0, ts1)
			if err != nil {
				return nil, err
			}
			if len(page) < exchange.AggTradePageLimit {
				break
			}
			window = NextWindowSize(window, true)
			f.logger.Info("halving window", "window", window)
		}

		f.logger.Info("ranged page complete",
			"from", timeutil.FromEpochMs(ts0), "to", timeutil.FromEpochMs(ts1), "trades", len(page))
		raws = append(raws, page...)
		ts0 = ts1
		window = NextWindowSize(window, false)
	}

	return Normalize(raws)
}

// filterInWindow keeps rows whose timestamp lies within [begMs, endMs], both
// bounds inclusive.
func filterInWindow(page []exchange.RawAggTrade, begMs, endMs int64) []exchange.RawAggTrade {
	kept := make([]exchange.RawAggTrade, 0, len(page))
	for _, t := range page {
		if t.TimeMs >= begMs && t.TimeMs <= endMs {
			kept = append(kept, t)
		}
	}
	return kept
}

// Normalize converts raw rows into typed trades sorted ascending by time.
func Normalize(raws []exchange.RawAggTrade) ([]models.Trade, error) {
	trades := make([]models.Trade, 0, len(raws))
	for _, raw := range raws {
		price, err := decimal.NewFromString(raw.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price '%s' for trade %d: %w", raw.Price, raw.ID, err)
		}
		qty, err := decimal.NewFromString(raw.Qty)
		if err != nil {
			return nil, fmt.Errorf("invalid qty '%s' for trade %d: %w", raw.Qty, raw.ID, err)
		}
		trades = append(trades, models.Trade{
			ID:    raw.ID,
			Price: price,
			Qty:   qty,
			Time:  timeutil.FromEpochMs(raw.TimeMs),
			Side:  models.SideFromBuyerMaker(raw.BuyerIsMaker),
		})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Time.Before(trades[j].Time)
	})
	return trades, nil
}

// reportGaps audits the trade-ID sequence for holes. Gaps are a soft
// anomaly: logged, never repaired.
func (f *Fetcher) reportGaps(trades []models.Trade) {
	ids := make([]int64, len(trades))
	for i, t := range trades {
		ids[i] = t.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	missing := gaps.ListMissingIDs(ids)
	if len(missing) == 0 {
		f.logger.Info("no missing trade ids detected")
		return
	}
	f.logger.Warn("missing trade ids detected", "count", len(missing), "first", missing[0], "last", missing[len(missing)-1])
}
