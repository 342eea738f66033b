// binance-fetch-trades downloads the complete aggregated-trade history of a
// spot symbol, one UTC day per parquet file. For each day the fetcher seeks
// the day's earliest trade ID, pages forward through the ID space, and
// audits the reconstructed sequence for gaps.
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
	"tickhist/internal/refdata"
	"tickhist/internal/store"
	"tickhist/internal/timeutil"
	"tickhist/internal/trades"
)

func main() {
	var (
		sym        = flag.String("sym", "", "symbol (required)")
		fromArg    = flag.String("from", "", "begin date, YYYYMMDD or YYYY-MM-DD (required)")
		uptoArg    = flag.String("upto", "", "end date, exclusive (required)")
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
		if *sym == "" || *fromArg == "" || *uptoArg == "" {
			return app.Userf("--sym, --from and --upto are required")
		}
		from, upto, err := app.ParseDateRange(*fromArg, *uptoArg)
		if err != nil {
			return err
		}
		sid, err := refdata.BuildAssetID(*sym, true)
		if err != nil {
			return app.Userf("%v", err)
		}

		client := exchange.NewClient(exchange.Spot, cfg.HTTPTimeout, log)
		fetcher := trades.NewFetcher(client, log)
		st := store.New(cfg.DataRoot, log)
		id := store.Identity{SID: sid, Venue: "binance", Dtype: "trades", Interval: "trades"}

		for _, day := range timeutil.DatesInRange(from, upto) {
			dayTrades, err := fetcher.FetchDay(ctx, *sym, day)
			if err != nil {
				return err
			}
			if _, err := st.SaveTrades(*sym, day, dayTrades, id); err != nil {
				return err
			}
		}
		return nil
	})

	closer.Close()
	os.Exit(code)
}
