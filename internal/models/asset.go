package models

// AssetType classifies an instrument descriptor.
type AssetType string

const (
	AssetCoinpair AssetType = "coinpair"
	AssetPerp     AssetType = "perp"
	AssetFuture   AssetType = "future"
)

// AssetRow is one normalized reference-data row. Filter-derived fields keep
// the exchange's string representation so no precision is lost on the way to
// the CSV output.
type AssetRow struct {
	Symbol              string
	AssetID             string
	Type                AssetType
	Venue               string
	BaseAsset           string
	QuoteAsset          string
	MarginAsset         string
	BaseAssetPrecision  int
	QuoteAssetPrecision int
	Status              string
	UnderlyingType      string
	ContractType        string

	// From the per-instrument filter list.
	MinQty       string
	MaxQty       string
	LotQty       string
	MinNotional  string
	TickSize     string
	MaxNumOrders int
}
