package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptocurrenciesWellKnownIdentities(t *testing.T) {
	list := NewGenerator(1).Cryptocurrencies(3)
	require.Len(t, list, 3)
	assert.Equal(t, "Bitcoin", list[0].Name)
	assert.Equal(t, "BTC", list[0].Symbol)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 1, list[0].Rank)
	assert.Equal(t, "ETH", list[1].Symbol)
}

func TestCryptocurrenciesSyntheticIdentitiesBeyondKnownSet(t *testing.T) {
	list := NewGenerator(1).Cryptocurrencies(12)
	require.Len(t, list, 12)
	assert.Equal(t, "Crypto11", list[10].Name)
	assert.Len(t, list[10].Symbol, 3)
}

func TestCryptocurrenciesQuoteCurrencies(t *testing.T) {
	list := NewGenerator(1).Cryptocurrencies(1, "USD", "EUR")
	require.Len(t, list, 1)
	require.Contains(t, list[0].Quote, "USD")
	require.Contains(t, list[0].Quote, "EUR")
	q := list[0].Quote["USD"]
	assert.Greater(t, q.Price, 0.0)
	assert.GreaterOrEqual(t, q.PercentChange24h, -20.0)
	assert.LessOrEqual(t, q.PercentChange24h, 20.0)
}

func TestGeneratorIsDeterministicPerSeed(t *testing.T) {
	a := NewGenerator(42).Cryptocurrencies(20)
	b := NewGenerator(42).Cryptocurrencies(20)
	assert.Equal(t, a, b)

	c := NewGenerator(43).Cryptocurrencies(20)
	assert.NotEqual(t, a, c)
}

func TestExchanges(t *testing.T) {
	list := NewGenerator(1).Exchanges(11)
	require.Len(t, list, 11)
	assert.Equal(t, "Binance", list[0].Name)
	assert.Equal(t, "binance", list[0].Slug)
	assert.Equal(t, "Exchange11", list[10].Name)
	for _, e := range list {
		assert.GreaterOrEqual(t, e.NumMarkets, 100)
		assert.LessOrEqual(t, e.NumMarkets, 2000)
	}
}

func TestMetadataUsesKnownNames(t *testing.T) {
	meta := NewGenerator(1).Metadata("BTC", "ZZZ")
	require.Contains(t, meta, "BTC")
	assert.Equal(t, "Bitcoin", meta["BTC"].Name)
	assert.Equal(t, "ZZZ", meta["ZZZ"].Name, "unknown symbols fall back to the symbol itself")
}

func TestTick(t *testing.T) {
	tick := NewGenerator(1).Tick("BTC")
	assert.Equal(t, "BTC", tick.Symbol)
	assert.Greater(t, tick.Price, 0.0)
	assert.NotZero(t, tick.Timestamp)
}
