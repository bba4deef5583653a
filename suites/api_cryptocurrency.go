package suites

import (
	"context"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/apiclient"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

func runAPISuite(t *qatest.T) {
	t.Run("cryptocurrency", doCryptocurrencyTests)
	t.Run("exchange", doExchangeTests)
	t.Run("global metrics", doGlobalMetricsTests)
	t.Run("price stream", doPriceStreamTests)
}

func doCryptocurrencyTests(t *qatest.T) {
	sctx := ctxFromT(t)

	t.Run("listings respect limit", func(t *qatest.T) {
		limit := sctx.Config.GetInt("api.listing_limit", 10)
		out, err := sctx.API.CryptocurrencyListings(apiContext(t), limit, "USD")
		require.NoError(t, err)
		require.Len(t, out.Data, limit)
		assert.Equal(t, 0, out.Status.ErrorCode)
	})

	t.Run("listings have complete rows", func(t *qatest.T) {
		out, err := sctx.API.CryptocurrencyListings(apiContext(t), 10, "USD")
		require.NoError(t, err)
		for _, asset := range out.Data {
			assert.NotEmpty(t, asset.Name)
			assert.NotEmpty(t, asset.Symbol)
			assert.NotEmpty(t, asset.Slug)
			quote, ok := asset.Quote["USD"]
			if assert.True(t, ok, "asset %s has no USD quote", asset.Symbol) {
				assert.Greater(t, quote.Price, 0.0, "asset %s has no price", asset.Symbol)
				assert.Greater(t, quote.MarketCap, 0.0, "asset %s has no market cap", asset.Symbol)
			}
		}
	})

	t.Run("listings are ranked", func(t *qatest.T) {
		out, err := sctx.API.CryptocurrencyListings(apiContext(t), 20, "USD")
		require.NoError(t, err)
		require.NotEmpty(t, out.Data)
		for i, asset := range out.Data {
			assert.Equal(t, i+1, asset.Rank, "row %d is out of rank order", i)
		}
	})

	t.Run("listings convert to other currencies", func(t *qatest.T) {
		convert := sctx.Config.GetString("api.convert_currency", "EUR")
		out, err := sctx.API.CryptocurrencyListings(apiContext(t), 5, convert)
		require.NoError(t, err)
		require.NotEmpty(t, out.Data)
		quote, ok := out.Data[0].Quote[convert]
		require.True(t, ok, "no %s quote present", convert)
		assert.Greater(t, quote.Price, 0.0)
	})

	t.Run("listings reject a non-numeric limit", func(t *qatest.T) {
		_, err := sctx.API.Get(apiContext(t),
			apiclient.PathCryptocurrencyListings+"?limit=notanumber", nil)
		requireStatus(t, err, 400)
	})

	t.Run("info returns metadata for known symbols", func(t *qatest.T) {
		out, err := sctx.API.CryptocurrencyInfo(apiContext(t), "BTC")
		require.NoError(t, err)
		meta, ok := out.Data["BTC"]
		require.True(t, ok)
		assert.Equal(t, "Bitcoin", meta.Name)
		assert.NotEmpty(t, meta.Category)
	})

	t.Run("info normalizes symbol case", func(t *qatest.T) {
		out, err := sctx.API.CryptocurrencyInfo(apiContext(t), "eth")
		require.NoError(t, err)
		_, ok := out.Data["ETH"]
		assert.True(t, ok, "lower-case symbol was not normalized")
	})

	t.Run("info requires a symbol", func(t *qatest.T) {
		_, err := sctx.API.Get(apiContext(t), apiclient.PathCryptocurrencyInfo, nil)
		requireStatus(t, err, 400)
	})
}

// apiContext derives the request context for one test, honoring the
// configured per-request ceiling.
func apiContext(t *qatest.T) context.Context {
	sctx := ctxFromT(t)
	timeout := sctx.Config.GetDuration("api.max_response_time", 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Defer(cancel)
	return ctx
}

// requireStatus asserts that err is a response status error with the given
// code, terminating the test otherwise.
func requireStatus(t *qatest.T, err error, statusCode int) {
	t.Helper()
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, statusCode, statusErr.StatusCode,
		"unexpected response status (body: %s)", strings.TrimSpace(string(statusErr.Body)))
}
