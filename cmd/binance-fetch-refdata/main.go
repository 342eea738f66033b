// binance-fetch-refdata downloads exchange reference data for the spot,
// USD-margined and coin-margined market segments, normalizes each into
// instrument rows with canonical asset IDs and writes one combined CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tickhist/internal/app"
	"tickhist/internal/config"
	"tickhist/internal/exchange"
	"tickhist/internal/logger"
	"tickhist/internal/models"
	"tickhist/internal/refdata"
)

func main() {
	var (
		outPath    = flag.String("out", "binance_assets.csv", "output CSV file")
		configPath = flag.String("config", "", "path to config file")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(app.ExitUserError)
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(app.ExitFailure)
	}
	app.LogPreamble(log)

	code := app.Run(log, func(ctx context.Context) error {
		segments := []struct {
			endpoints exchange.Endpoints
			venue     string
			parse     func([]byte) ([]models.AssetRow, error)
		}{
			{exchange.Spot, "binance", func(data []byte) ([]models.AssetRow, error) {
				return refdata.ParseSpot(data, log)
			}},
			{exchange.USDFutures, "binance_usdfut", func(data []byte) ([]models.AssetRow, error) {
				return refdata.ParseDerivatives(data, "binance_usdfut", log)
			}},
			{exchange.CoinFutures, "binance_coinfut", func(data []byte) ([]models.AssetRow, error) {
				return refdata.ParseDerivatives(data, "binance_coinfut", log)
			}},
		}

		var rows []models.AssetRow
		for _, seg := range segments {
			log.Info("fetching exchange info", "venue", seg.venue)
			client := exchange.NewClient(seg.endpoints, cfg.HTTPTimeout, log)
			data, err := client.GetExchangeInfo(ctx)
			if err != nil {
				return err
			}
			parsed, err := seg.parse(data)
			if err != nil {
				return err
			}
			rows = append(rows, parsed...)
		}

		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		log.Info("writing csv file", "path", *outPath, "rows", len(rows))
		if err := refdata.WriteCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})

	closer.Close()
	os.Exit(code)
}
