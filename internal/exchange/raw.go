package exchange

import (
	"encoding/json"
	"fmt"
)

// RawKline is one kline row as returned by the exchange: a fixed-position
// JSON array of 12 fields. Prices and volumes stay strings until
// normalization so no precision is lost in transit.
type RawKline struct {
	OpenTimeMs          int64
	Open                string
	High                string
	Low                 string
	Close               string
	Volume              string
	CloseTimeMs         int64
	QuoteAssetVolume    string
	TradeCount          int64
	TakerBuyBaseVolume  string
	TakerBuyQuoteVolume string
	// The trailing "ignore" field is discarded.
}

// UnmarshalJSON decodes the positional array form.
func (k *RawKline) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("kline row is not an array: %w", err)
	}
	if len(fields) != 12 {
		return fmt.Errorf("expected 12 kline fields, got %d", len(fields))
	}

	targets := []any{
		&k.OpenTimeMs, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume,
		&k.CloseTimeMs, &k.QuoteAssetVolume, &k.TradeCount,
		&k.TakerBuyBaseVolume, &k.TakerBuyQuoteVolume,
	}
	for i, target := range targets {
		if err := json.Unmarshal(fields[i], target); err != nil {
			return fmt.Errorf("kline field %d: %w", i, err)
		}
	}
	return nil
}

// RawAggTrade is one aggregated trade as returned by the exchange. The
// first/last constituent trade IDs are decoded but discarded downstream.
type RawAggTrade struct {
	ID           int64  `json:"a"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	FirstTradeID int64  `json:"f"`
	LastTradeID  int64  `json:"l"`
	TimeMs       int64  `json:"T"`
	BuyerIsMaker bool   `json:"m"`
}
