// tickhist-query reads one stored day file back out of the parquet tree and
// prints it as a table, CSV or JSON.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"tickhist/internal/app"
	"tickhist/internal/config"
	"tickhist/internal/logger"
	"tickhist/internal/store"
	"tickhist/internal/timeutil"
)

func main() {
	var (
		sid        = flag.String("sid", "", "canonical asset ID, e.g. BTCUSDT_BNC (required)")
		venue      = flag.String("venue", "binance", "venue partition")
		dtype      = flag.String("dtype", "trades", "data kind partition, e.g. bars, trades")
		interval   = flag.String("interval", "trades", "file-name interval, e.g. 1m, trades")
		dateArg    = flag.String("date", "", "UTC day, YYYYMMDD or YYYY-MM-DD (required)")
		limit      = flag.Int("limit", 0, "maximum rows to print, 0 for all")
		format     = flag.String("format", "table", "output format: table, csv, json")
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

	code := app.Run(log, func(ctx context.Context) error {
		if *sid == "" || *dateArg == "" {
			return app.Userf("--sid and --date are required")
		}
		day, err := timeutil.ParseDate(*dateArg)
		if err != nil {
			return app.Userf("%v", err)
		}

		st := store.New(cfg.DataRoot, log)
		id := store.Identity{SID: *sid, Venue: *venue, Dtype: *dtype, Interval: *interval}
		if !st.Exists(id, day) {
			return app.Userf("no data file at %s", st.BuildPath(id, day))
		}

		result, err := st.ReadParquet(ctx, id, day, *limit)
		if err != nil {
			return err
		}

		switch *format {
		case "table":
			return printTable(result)
		case "csv":
			return printCSV(result)
		case "json":
			return printJSON(result)
		default:
			return app.Userf("unknown format '%s', valid formats: table csv json", *format)
		}
	})

	closer.Close()
	os.Exit(code)
}

func printTable(result *store.QueryResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for i, col := range result.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range result.Rows {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, val)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func printCSV(result *store.QueryResult) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(result.Columns); err != nil {
		return err
	}
	if err := w.WriteAll(result.Rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func printJSON(result *store.QueryResult) error {
	records := make([]map[string]string, len(result.Rows))
	for i, row := range result.Rows {
		record := make(map[string]string, len(result.Columns))
		for j, col := range result.Columns {
			record[col] = row[j]
		}
		records[i] = record
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
