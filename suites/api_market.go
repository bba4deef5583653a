package suites

import (
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

func doExchangeTests(t *qatest.T) {
	sctx := ctxFromT(t)

	t.Run("listings respect limit", func(t *qatest.T) {
		out, err := sctx.API.ExchangeListings(apiContext(t), 5)
		require.NoError(t, err)
		require.Len(t, out.Data, 5)
	})

	t.Run("listings have complete rows", func(t *qatest.T) {
		out, err := sctx.API.ExchangeListings(apiContext(t), 10)
		require.NoError(t, err)
		for _, exchange := range out.Data {
			assert.NotEmpty(t, exchange.Name)
			assert.NotEmpty(t, exchange.Slug)
			assert.Greater(t, exchange.Volume24h, 0.0, "exchange %s has no volume", exchange.Name)
			assert.Greater(t, exchange.NumMarkets, 0, "exchange %s has no markets", exchange.Name)
		}
	})
}

func doGlobalMetricsTests(t *qatest.T) {
	sctx := ctxFromT(t)

	t.Run("snapshot is internally consistent", func(t *qatest.T) {
		out, err := sctx.API.GlobalMetrics(apiContext(t))
		require.NoError(t, err)
		metrics := out.Data
		assert.Greater(t, metrics.ActiveCryptocurrencies, 0)
		assert.Greater(t, metrics.ActiveExchanges, 0)
		assert.Greater(t, metrics.TotalMarketCap, metrics.TotalVolume24h,
			"total market cap should dwarf daily volume")
		assert.Greater(t, metrics.BTCDominance, 0.0)
		assert.LessOrEqual(t, metrics.BTCDominance, 100.0)
	})

	t.Run("responds within the configured ceiling", func(t *qatest.T) {
		ceiling := sctx.Config.GetDuration("api.max_response_time", 10*time.Second)
		started := time.Now()
		_, err := sctx.API.GlobalMetrics(apiContext(t))
		elapsed := time.Since(started)
		require.NoError(t, err)
		assert.LessOrEqual(t, elapsed, ceiling,
			"response took %s, ceiling is %s", elapsed, ceiling)
		t.Debug("global metrics responded in %s", elapsed)
	})
}
