// Package refdata parses Binance exchange-info documents into normalized
// instrument rows with canonical asset IDs. The spot and derivatives
// documents share a shape but diverge in field names, so each market segment
// has its own parse entry point.
package refdata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tickhist/internal/models"
)

// futureMonthCodes maps month number 1..12 to the futures month letter.
var futureMonthCodes = [12]string{"F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// filtersToIgnore are filter types present in the documents that carry no
// information the asset table needs.
var filtersToIgnore = map[string]bool{
	"MAX_NUM_ALGO_ORDERS": true,
	"ICEBERG_PARTS":       true,
	"MARKET_LOT_SIZE":     true,
	"PERCENT_PRICE":       true,
}

type exchangeInfo struct {
	Symbols []rawSymbol `json:"symbols"`
}

// rawSymbol covers both the spot and the derivatives shapes; fields absent
// from one segment stay zero.
type rawSymbol struct {
	Symbol              string      `json:"symbol"`
	BaseAsset           string      `json:"baseAsset"`
	QuoteAsset          string      `json:"quoteAsset"`
	MarginAsset         string      `json:"marginAsset"`
	BaseAssetPrecision  int         `json:"baseAssetPrecision"`
	QuoteAssetPrecision int         `json:"quoteAssetPrecision"`
	QuotePrecision      int         `json:"quotePrecision"`
	Status              string      `json:"status"`
	ContractStatus      string      `json:"contractStatus"`
	ContractType        string      `json:"contractType"`
	UnderlyingType      string      `json:"underlyingType"`
	Filters             []rawFilter `json:"filters"`
}

// rawFilter keeps filter fields untyped: quantities arrive as strings while
// order-count caps arrive as numbers.
type rawFilter map[string]json.RawMessage

func (f rawFilter) filterType() string {
	return f.str("filterType")
}

func (f rawFilter) str(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func (f rawFilter) integer(key string) int {
	raw, ok := f[key]
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	if n, err := strconv.Atoi(f.str(key)); err == nil {
		return n
	}
	return 0
}

// ParseSpot parses the spot exchange-info document. Every spot instrument is
// a coinpair with asset ID {symbol}_BNC.
func ParseSpot(data []byte, logger *slog.Logger) ([]models.AssetRow, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var info exchangeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode spot exchange info: %w", err)
	}
	logger.Info("document has symbols", "count", len(info.Symbols))

	rows := make([]models.AssetRow, 0, len(info.Symbols))
	for _, item := range info.Symbols {
		row := models.AssetRow{
			Symbol:              item.Symbol,
			AssetID:             item.Symbol + "_BNC",
			Type:                models.AssetCoinpair,
			Venue:               "binance",
			BaseAsset:           item.BaseAsset,
			QuoteAsset:          item.QuoteAsset,
			BaseAssetPrecision:  item.BaseAssetPrecision,
			QuoteAssetPrecision: item.QuoteAssetPrecision,
			Status:              item.Status,
		}
		applyFilters(&row, item.Filters, false, logger)
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseDerivatives parses a futures exchange-info document (USD-margined or
// coin-margined; the venue label distinguishes them). Instruments with an
// unhandled contract type are skipped with a notice.
func ParseDerivatives(data []byte, venue string, logger *slog.Logger) ([]models.AssetRow, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var info exchangeInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode %s exchange info: %w", venue, err)
	}
	logger.Info("document has symbols", "count", len(info.Symbols))

	rows := make([]models.AssetRow, 0, len(info.Symbols))
	for _, item := range info.Symbols {
		assetType, ok := normalizeContractType(item.ContractType)
		if !ok {
			logger.Info("skipping asset with unhandled contract type",
				"symbol", item.Symbol, "contract_type", item.ContractType)
			continue
		}

		assetID, err := buildDerivativeAssetID(item.Symbol, assetType)
		if err != nil {
			return nil, err
		}

		status := item.Status
		if status == "" {
			status = item.ContractStatus
		}
		if status == "" {
			status = "unknown"
		}

		row := models.AssetRow{
			Symbol:              item.Symbol,
			AssetID:             assetID,
			Type:                assetType,
			Venue:               venue,
			BaseAsset:           item.BaseAsset,
			QuoteAsset:          item.QuoteAsset,
			MarginAsset:         item.MarginAsset,
			BaseAssetPrecision:  item.BaseAssetPrecision,
			QuoteAssetPrecision: item.QuotePrecision,
			Status:              status,
			UnderlyingType:      item.UnderlyingType,
			ContractType:        item.ContractType,
		}
		applyFilters(&row, item.Filters, true, logger)
		rows = append(rows, row)
	}
	return rows, nil
}

// applyFilters extracts the filter-derived columns. The derivatives
// documents rename two keys relative to spot.
func applyFilters(row *models.AssetRow, filters []rawFilter, derivatives bool, logger *slog.Logger) {
	minNotionalKey, maxNumOrdersKey := "minNotional", "maxNumOrders"
	if derivatives {
		minNotionalKey, maxNumOrdersKey = "notional", "limit"
	}

	for _, f := range filters {
		switch ft := f.filterType(); ft {
		case "LOT_SIZE":
			row.MinQty = f.str("minQty")
			row.MaxQty = f.str("maxQty")
			row.LotQty = f.str("stepSize")
		case "MIN_NOTIONAL":
			row.MinNotional = f.str(minNotionalKey)
		case "PRICE_FILTER":
			row.TickSize = f.str("tickSize")
		case "MAX_NUM_ORDERS":
			row.MaxNumOrders = f.integer(maxNumOrdersKey)
		default:
			if !filtersToIgnore[ft] {
				logger.Warn("ignoring unknown filter", "filter_type", ft)
			}
		}
	}
}

func normalizeContractType(contractType string) (models.AssetType, bool) {
	switch contractType {
	case "PERPETUAL":
		return models.AssetPerp, true
	case "CURRENT_QUARTER", "NEXT_QUARTER":
		return models.AssetFuture, true
	default:
		return "", false
	}
}

func buildDerivativeAssetID(symbol string, assetType models.AssetType) (string, error) {
	switch assetType {
	case models.AssetPerp:
		if strings.HasSuffix(symbol, "_PERP") {
			return strings.TrimSuffix(symbol, "_PERP") + "_PF_BNC", nil
		}
		return symbol + "_PF_BNC", nil
	case models.AssetFuture:
		return SimplifyFutureNativeCode(symbol)
	default:
		return symbol + "_BNC", nil
	}
}

// BuildAssetID derives the canonical asset ID a fetch tool stores data
// under. Cash instruments map directly to {symbol}_BNC; otherwise the symbol
// is treated as a derivative: a bare or _PERP-suffixed symbol is a perpetual,
// a dated suffix is a future.
func BuildAssetID(symbol string, isCash bool) (string, error) {
	if isCash {
		return symbol + "_BNC", nil
	}

	parts := strings.Split(symbol, "_")
	switch len(parts) {
	case 1:
		return symbol + "_PF_BNC", nil
	case 2:
		if parts[1] == "PERP" {
			return parts[0] + "_PF_BNC", nil
		}
		return SimplifyFutureNativeCode(symbol)
	default:
		return "", fmt.Errorf("invalid format for symbol, '%s'", symbol)
	}
}

// SimplifyFutureNativeCode converts a dated-future native code like
// BTCUSD_211231 into the canonical BTCUSD_Z1_BNC form: futures month letter
// followed by the final year digit.
func SimplifyFutureNativeCode(symbol string) (string, error) {
	parts := strings.Split(symbol, "_")
	if len(parts) != 2 {
		return "", fmt.Errorf("expected symbol to split into 2 parts, '%s'", symbol)
	}
	date := parts[1]
	if len(date) != 6 {
		return "", fmt.Errorf("expected symbol date to have len 6, '%s'", date)
	}

	month, err := strconv.Atoi(date[2:4])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month in symbol date '%s'", date)
	}
	return parts[0] + "_" + futureMonthCodes[month-1] + date[1:2] + "_BNC", nil
}
