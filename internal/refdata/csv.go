package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"tickhist/internal/models"
)

var csvHeader = []string{
	"assetid", "symbol", "type", "venue",
	"baseAsset", "quoteAsset", "marginAsset",
	"baseAssetPrecision", "quoteAssetPrecision",
	"status", "underlyingType", "contractType",
	"minQty", "maxQty", "lotQty", "minNotional", "tickSize", "maxNumOrders",
}

// WriteCSV writes the combined asset table keyed by asset ID. A duplicate
// asset ID is an integrity failure, not a row to be merged.
func WriteCSV(w io.Writer, rows []models.AssetRow) error {
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.AssetID] {
			return fmt.Errorf("duplicate asset id '%s'", row.AssetID)
		}
		seen[row.AssetID] = true
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.AssetID, row.Symbol, string(row.Type), row.Venue,
			row.BaseAsset, row.QuoteAsset, row.MarginAsset,
			strconv.Itoa(row.BaseAssetPrecision), strconv.Itoa(row.QuoteAssetPrecision),
			row.Status, row.UnderlyingType, row.ContractType,
			row.MinQty, row.MaxQty, row.LotQty, row.MinNotional, row.TickSize,
			strconv.Itoa(row.MaxNumOrders),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
