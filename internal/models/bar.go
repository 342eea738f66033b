package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one kline. Bars are keyed by CloseTime; the exchange's trailing
// "ignore" field is dropped during normalization.
type Bar struct {
	OpenTime            time.Time
	CloseTime           time.Time
	Open                decimal.Decimal
	High                decimal.Decimal
	Low                 decimal.Decimal
	Close               decimal.Decimal
	Volume              decimal.Decimal
	QuoteAssetVolume    decimal.Decimal
	TradeCount          int64
	TakerBuyBaseVolume  decimal.Decimal
	TakerBuyQuoteVolume decimal.Decimal
}
