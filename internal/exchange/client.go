// Package exchange provides the Binance REST client used by the fetch tools.
//
// The client issues plain paginated GETs against one endpoint set (spot or
// coin-margined futures) and decodes the raw rows. There is no retry: any
// non-200 response surfaces as a RequestError and aborts the caller's current
// day. The only pacing is a token-bucket limiter that reproduces the 100 ms
// gap between successive requests the exchange informally expects.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// AggTradePageLimit is the maximum number of aggregated trades one request
// can return. The trade fetcher treats a full page as a truncation signal.
const AggTradePageLimit = 1000

// requestInterval paces successive requests to one per 100 ms.
const requestInterval = 100 * time.Millisecond

// Endpoints describes one Binance API surface.
type Endpoints struct {
	BaseURL          string
	KlinesPath       string
	AggTradesPath    string
	ExchangeInfoPath string

	// KlineRequestLimit is the per-request row cap for klines.
	KlineRequestLimit int
}

// Spot is the binance.com spot API.
var Spot = Endpoints{
	BaseURL:           "https://api.binance.com",
	KlinesPath:        "/api/v3/klines",
	AggTradesPath:     "/api/v3/aggTrades",
	ExchangeInfoPath:  "/api/v3/exchangeInfo",
	KlineRequestLimit: 1000,
}

// CoinFutures is the coin-margined futures API.
var CoinFutures = Endpoints{
	BaseURL:           "https://dapi.binance.com",
	KlinesPath:        "/dapi/v1/klines",
	AggTradesPath:     "/dapi/v1/aggTrades",
	ExchangeInfoPath:  "/dapi/v1/exchangeInfo",
	KlineRequestLimit: 1500,
}

// USDFutures is the USD-margined futures API, used for reference data only.
var USDFutures = Endpoints{
	BaseURL:           "https://fapi.binance.com",
	KlinesPath:        "/fapi/v1/klines",
	AggTradesPath:     "/fapi/v1/aggTrades",
	ExchangeInfoPath:  "/fapi/v1/exchangeInfo",
	KlineRequestLimit: 1500,
}

// RequestError is any non-200 response from the exchange. Callers decide the
// retry policy; none of the fetchers implement one.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("http request failed, error-code %d, msg: %s", e.StatusCode, e.Body)
}

// Client issues requests against one endpoint set.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client for the given endpoint set.
func NewClient(endpoints Endpoints, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoints: endpoints,
		limiter:   rate.NewLimiter(rate.Every(requestInterval), 1),
		logger:    logger,
	}
}

// Endpoints returns the endpoint set the client talks to.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// GetKlines fetches kline rows for symbol within [startMs, endMs].
func (c *Client) GetKlines(ctx context.Context, symbol string, startMs, endMs int64, interval string) ([]RawKline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(c.endpoints.KlineRequestLimit))
	params.Set("startTime", strconv.FormatInt(startMs, 10))
	params.Set("endTime", strconv.FormatInt(endMs, 10))

	var klines []RawKline
	if err := c.get(ctx, c.endpoints.KlinesPath, params, &klines); err != nil {
		return nil, err
	}
	return klines, nil
}

// GetAggTradesByTime fetches up to AggTradePageLimit trades whose timestamps
// fall within [startMs, endMs]. Used for seed discovery only.
func (c *Client) GetAggTradesByTime(ctx context.Context, symbol string, startMs, endMs int64) ([]RawAggTrade, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(AggTradePageLimit))
	params.Set("startTime", strconv.FormatInt(startMs, 10))
	params.Set("endTime", strconv.FormatInt(endMs, 10))
	return c.getAggTrades(ctx, params)
}

// GetAggTradesFromID fetches up to AggTradePageLimit trades with IDs >= fromID.
// Used for ID paging.
func (c *Client) GetAggTradesFromID(ctx context.Context, symbol string, fromID int64) ([]RawAggTrade, error) {
	if fromID < 0 {
		fromID = 0
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(AggTradePageLimit))
	params.Set("fromId", strconv.FormatInt(fromID, 10))
	return c.getAggTrades(ctx, params)
}

func (c *Client) getAggTrades(ctx context.Context, params url.Values) ([]RawAggTrade, error) {
	var trades []RawAggTrade
	if err := c.get(ctx, c.endpoints.AggTradesPath, params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// GetExchangeInfo fetches the raw reference-data document. The shape varies
// by market segment, so decoding is left to the refdata parser.
func (c *Client) GetExchangeInfo(ctx context.Context) ([]byte, error) {
	return c.getRaw(ctx, c.endpoints.ExchangeInfoPath, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.getRaw(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	requestURL := c.endpoints.BaseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	c.logger.Debug("making URL request", "url", c.endpoints.BaseURL+path, "params", params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
