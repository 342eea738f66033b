// binance-coinfut-fetch-bars downloads coin-margined futures kline bars for
// a symbol, one UTC day per parquet file. Days whose output file already
// exists are skipped before any request is made.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tickhist/internal/app"
	"tickhist/internal/config"
	"tickhist/internal/exchange"
	"tickhist/internal/klines"
	"tickhist/internal/logger"
	"tickhist/internal/models"
	"tickhist/internal/refdata"
	"tickhist/internal/store"
	"tickhist/internal/timeutil"
)

func main() {
	var (
		sym        = flag.String("sym", "", "native contract symbol, e.g. BTCUSD_PERP (required)")
		fromArg    = flag.String("from", "", "begin date, YYYYMMDD or YYYY-MM-DD (required)")
		uptoArg    = flag.String("upto", "", "end date, exclusive (required)")
		interval   = flag.String("interval", "1m", "kline interval")
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
		iv, err := models.ParseInterval(*interval)
		if err != nil {
			return app.Userf("%v", err)
		}
		sid, err := refdata.BuildAssetID(*sym, false)
		if err != nil {
			return app.Userf("%v", err)
		}

		client := exchange.NewClient(exchange.CoinFutures, cfg.HTTPTimeout, log)
		fetcher := klines.NewFetcher(client, exchange.CoinFutures.KlineRequestLimit, log)
		st := store.New(cfg.DataRoot, log)
		dtype := "bars" + iv.String()
		id := store.Identity{SID: sid, Venue: "binance_coinfut", Dtype: dtype, Interval: dtype}

		for _, day := range timeutil.DatesInRange(from, upto) {
			if st.Exists(id, day) {
				log.Info("already fetched, skipping", "path", st.BuildPath(id, day))
				continue
			}
			bars, err := fetcher.FetchDay(ctx, *sym, day, iv)
			if err != nil {
				return err
			}
			if _, err := st.SaveBars(*sym, day, bars, id); err != nil {
				return err
			}
		}
		return nil
	})

	closer.Close()
	os.Exit(code)
}
