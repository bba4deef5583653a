package marketdata

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var wellKnownAssets = []struct{ name, symbol string }{ //nolint:gochecknoglobals
	{"Bitcoin", "BTC"},
	{"Ethereum", "ETH"},
	{"Ripple", "XRP"},
	{"Cardano", "ADA"},
	{"Solana", "SOL"},
	{"Polkadot", "DOT"},
	{"Dogecoin", "DOGE"},
	{"Avalanche", "AVAX"},
	{"Chainlink", "LINK"},
	{"Polygon", "MATIC"},
}

var wellKnownExchanges = []string{ //nolint:gochecknoglobals
	"Binance", "Coinbase", "Kraken", "Bitfinex", "Huobi",
	"KuCoin", "Bitstamp", "Gemini", "OKX", "Bybit",
}

// Generator produces test data for the market-data domain. The same seed
// always produces the same sequence, so suites can assert against generated
// values. A Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data, not crypto
		now: time.Now,
	}
}

// Cryptocurrencies generates count listing rows with quotes in each of the
// given conversion currencies ("USD" if none are given). The first ten assets
// use well-known names so that tests can look up familiar symbols.
func (g *Generator) Cryptocurrencies(count int, convert ...string) []Cryptocurrency {
	if len(convert) == 0 {
		convert = []string{"USD"}
	}
	out := make([]Cryptocurrency, 0, count)
	for i := 0; i < count; i++ {
		name, symbol := g.assetIdentity(i)
		quotes := make(map[string]Quote, len(convert))
		for _, currency := range convert {
			quotes[currency] = g.quote()
		}
		out = append(out, Cryptocurrency{
			ID:     i + 1,
			Name:   name,
			Symbol: symbol,
			Slug:   strings.ToLower(name),
			Rank:   i + 1,
			Quote:  quotes,
		})
	}
	return out
}

// Metadata generates info-endpoint records keyed by symbol.
func (g *Generator) Metadata(symbols ...string) map[string]AssetMetadata {
	out := make(map[string]AssetMetadata, len(symbols))
	for i, symbol := range symbols {
		name := symbol
		for _, known := range wellKnownAssets {
			if known.symbol == symbol {
				name = known.name
				break
			}
		}
		out[symbol] = AssetMetadata{
			ID:          i + 1,
			Name:        name,
			Symbol:      symbol,
			Category:    "coin",
			Description: fmt.Sprintf("%s is a cryptocurrency.", name),
			Logo:        fmt.Sprintf("https://static.example.com/logo/%s.png", strings.ToLower(symbol)),
			DateAdded:   "2013-04-28T00:00:00.000Z",
		}
	}
	return out
}

// Exchanges generates count exchange listing rows.
func (g *Generator) Exchanges(count int) []Exchange {
	out := make([]Exchange, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("Exchange%d", i+1)
		if i < len(wellKnownExchanges) {
			name = wellKnownExchanges[i]
		}
		out = append(out, Exchange{
			ID:          i + 1,
			Name:        name,
			Slug:        strings.ToLower(name),
			Volume24h:   g.floatBetween(1e7, 1e10),
			NumMarkets:  g.intBetween(100, 2000),
			NumCoins:    g.intBetween(50, 500),
			LastUpdated: g.timestamp(),
		})
	}
	return out
}

// GlobalMetrics generates one aggregate market snapshot.
func (g *Generator) GlobalMetrics() GlobalMetrics {
	return GlobalMetrics{
		ActiveCryptocurrencies: g.intBetween(5000, 12000),
		ActiveExchanges:        g.intBetween(300, 800),
		TotalMarketCap:         g.floatBetween(8e11, 3e12),
		TotalVolume24h:         g.floatBetween(3e10, 2e11),
		BTCDominance:           g.floatBetween(35, 60),
	}
}

// Tick generates one price-stream event for the given symbol.
func (g *Generator) Tick(symbol string) PriceTick {
	return PriceTick{
		Symbol:    symbol,
		Price:     g.floatBetween(0.01, 100000),
		Timestamp: g.now().UnixMilli(),
	}
}

func (g *Generator) assetIdentity(index int) (string, string) {
	if index < len(wellKnownAssets) {
		return wellKnownAssets[index].name, wellKnownAssets[index].symbol
	}
	name := fmt.Sprintf("Crypto%d", index+1)
	letters := make([]byte, 3)
	for i := range letters {
		letters[i] = byte('A' + g.rng.Intn(26))
	}
	return name, string(letters)
}

func (g *Generator) quote() Quote {
	return Quote{
		Price:            g.floatBetween(0.01, 100000),
		MarketCap:        g.floatBetween(1e6, 1e12),
		Volume24h:        g.floatBetween(1e5, 5e10),
		PercentChange24h: g.floatBetween(-20, 20),
		LastUpdated:      g.timestamp(),
	}
}

func (g *Generator) floatBetween(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}

func (g *Generator) intBetween(min, max int) int {
	return min + g.rng.Intn(max-min+1)
}

func (g *Generator) timestamp() string {
	return g.now().UTC().Format("2006-01-02T15:04:05.000Z")
}
