package exchange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(serverURL string) *Client {
	endpoints := Spot
	endpoints.BaseURL = serverURL
	return NewClient(endpoints, 5*time.Second, testLogger())
}

const klinePage = `[
	[1609459200000,"29000.01","29100.00","28950.00","29050.55","12.5",1609459259999,"362500.0",321,"6.1","176900.0","0"],
	[1609459260000,"29050.55","29080.00","29000.00","29020.00","8.2",1609459319999,"238000.0",199,"4.0","116000.0","0"]
]`

const aggTradePage = `[
	{"a":1001,"p":"29000.01","q":"0.5","f":2001,"l":2002,"T":1609459200123,"m":true},
	{"a":1002,"p":"29000.02","q":"0.1","f":2003,"l":2003,"T":1609459200456,"m":false}
]`

func TestGetKlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("interval"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "1609459200000", q.Get("startTime"))
		assert.Equal(t, "1609462800000", q.Get("endTime"))
		io.WriteString(w, klinePage)
	}))
	defer server.Close()

	klines, err := testClient(server.URL).GetKlines(context.Background(), "BTCUSDT", 1609459200000, 1609462800000, "1m")
	require.NoError(t, err)
	require.Len(t, klines, 2)

	assert.Equal(t, int64(1609459200000), klines[0].OpenTimeMs)
	assert.Equal(t, int64(1609459259999), klines[0].CloseTimeMs)
	assert.Equal(t, "29000.01", klines[0].Open)
	assert.Equal(t, "29050.55", klines[0].Close)
	assert.Equal(t, int64(321), klines[0].TradeCount)
	assert.Equal(t, "6.1", klines[0].TakerBuyBaseVolume)
}

func TestGetAggTrades(t *testing.T) {
	t.Run("by time range", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v3/aggTrades", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "1609459200000", q.Get("startTime"))
			assert.Equal(t, "1609462800000", q.Get("endTime"))
			assert.Empty(t, q.Get("fromId"))
			io.WriteString(w, aggTradePage)
		}))
		defer server.Close()

		trades, err := testClient(server.URL).GetAggTradesByTime(context.Background(), "BTCUSDT", 1609459200000, 1609462800000)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, int64(1001), trades[0].ID)
		assert.True(t, trades[0].BuyerIsMaker)
		assert.Equal(t, "0.1", trades[1].Qty)
	})

	t.Run("by fromId", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "1001", q.Get("fromId"))
			assert.Empty(t, q.Get("startTime"))
			io.WriteString(w, aggTradePage)
		}))
		defer server.Close()

		_, err := testClient(server.URL).GetAggTradesFromID(context.Background(), "BTCUSDT", 1001)
		require.NoError(t, err)
	})

	t.Run("negative fromId is clamped to zero", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "0", r.URL.Query().Get("fromId"))
			io.WriteString(w, "[]")
		}))
		defer server.Close()

		trades, err := testClient(server.URL).GetAggTradesFromID(context.Background(), "BTCUSDT", -500)
		require.NoError(t, err)
		assert.Empty(t, trades)
	})
}

func TestRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetKlines(context.Background(), "NOPE", 0, 1, "1m")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusTeapot, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "Invalid symbol")
}

func TestRawKlineUnmarshal(t *testing.T) {
	t.Run("rejects short rows", func(t *testing.T) {
		var k RawKline
		err := k.UnmarshalJSON([]byte(`[1,"a","b"]`))
		assert.ErrorContains(t, err, "expected 12 kline fields")
	})

	t.Run("rejects non-array rows", func(t *testing.T) {
		var k RawKline
		assert.Error(t, k.UnmarshalJSON([]byte(`{"open":1}`)))
	})
}
