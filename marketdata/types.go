// Package marketdata defines the data model of the market-data platform under
// test, plus factories for generating deterministic test data. The JSON shapes
// mirror the platform's public API envelope: every response carries a status
// object and a data payload.
package marketdata

// Status is the standard response status block returned by every API endpoint.
type Status struct {
	Timestamp    string  `json:"timestamp"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
	CreditCount  int     `json:"credit_count"`
}

// Quote holds market figures for one asset in one conversion currency.
type Quote struct {
	Price            float64 `json:"price"`
	MarketCap        float64 `json:"market_cap"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	LastUpdated      string  `json:"last_updated"`
}

// Cryptocurrency is one listing row.
type Cryptocurrency struct {
	ID     int              `json:"id"`
	Name   string           `json:"name"`
	Symbol string           `json:"symbol"`
	Slug   string           `json:"slug"`
	Rank   int              `json:"cmc_rank"`
	Quote  map[string]Quote `json:"quote"`
}

// AssetMetadata is the static information returned by the info endpoint.
type AssetMetadata struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	DateAdded   string `json:"date_added"`
}

// Exchange is one exchange listing row.
type Exchange struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Volume24h   float64 `json:"volume_24h"`
	NumMarkets  int     `json:"num_markets"`
	NumCoins    int     `json:"num_coins"`
	LastUpdated string  `json:"last_updated"`
}

// GlobalMetrics is the aggregate market snapshot.
type GlobalMetrics struct {
	ActiveCryptocurrencies int     `json:"active_cryptocurrencies"`
	ActiveExchanges        int     `json:"active_exchanges"`
	TotalMarketCap         float64 `json:"total_market_cap"`
	TotalVolume24h         float64 `json:"total_volume_24h"`
	BTCDominance           float64 `json:"btc_dominance"`
}

// PriceTick is one event on the price stream.
type PriceTick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}
