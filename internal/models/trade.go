// Package models provides the typed records the fetch tools operate on:
// aggregated trades, kline bars, instrument reference-data rows and the
// kline interval enum.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the aggressor side of a trade, inferred from the exchange's
// buyer-is-maker flag: when the buyer was the maker, the trade was initiated
// by a seller.
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = -1
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("Side(%d)", int8(s))
	}
}

// SideFromBuyerMaker maps the exchange's maker flag to an aggressor side.
func SideFromBuyerMaker(buyerIsMaker bool) Side {
	if buyerIsMaker {
		return SideSell
	}
	return SideBuy
}

// Trade is one aggregated trade. IDs are assigned by the exchange and are
// monotonically increasing; a correctly fetched window holds a contiguous run
// of them.
type Trade struct {
	ID    int64
	Price decimal.Decimal
	Qty   decimal.Decimal
	Time  time.Time
	Side  Side
}
