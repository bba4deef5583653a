package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/cryptoqa/market-test-harness/marketdata"
)

// Endpoint paths of the market-data API.
const (
	PathCryptocurrencyListings = "/v1/cryptocurrency/listings/latest"
	PathCryptocurrencyInfo     = "/v2/cryptocurrency/info"
	PathExchangeListings       = "/v1/exchange/listings/latest"
	PathGlobalMetrics          = "/v1/global-metrics/quotes/latest"
	PathPriceStream            = "/v1/stream/prices"
)

type ListingsResponse struct {
	Status marketdata.Status           `json:"status"`
	Data   []marketdata.Cryptocurrency `json:"data"`
}

type InfoResponse struct {
	Status marketdata.Status                   `json:"status"`
	Data   map[string]marketdata.AssetMetadata `json:"data"`
}

type ExchangeListingsResponse struct {
	Status marketdata.Status     `json:"status"`
	Data   []marketdata.Exchange `json:"data"`
}

type GlobalMetricsResponse struct {
	Status marketdata.Status        `json:"status"`
	Data   marketdata.GlobalMetrics `json:"data"`
}

// CryptocurrencyListings fetches the latest listings, at most limit rows,
// with quotes converted to the given currency.
func (c *Client) CryptocurrencyListings(ctx context.Context, limit int, convert string) (*ListingsResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if convert != "" {
		params.Set("convert", convert)
	}
	resp, err := c.Get(ctx, PathCryptocurrencyListings, params)
	if err != nil {
		return nil, err
	}
	var out ListingsResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CryptocurrencyInfo fetches static metadata for one symbol.
func (c *Client) CryptocurrencyInfo(ctx context.Context, symbol string) (*InfoResponse, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	resp, err := c.Get(ctx, PathCryptocurrencyInfo, params)
	if err != nil {
		return nil, err
	}
	var out InfoResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeListings fetches the latest exchange listings, at most limit rows.
func (c *Client) ExchangeListings(ctx context.Context, limit int) (*ExchangeListingsResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	resp, err := c.Get(ctx, PathExchangeListings, params)
	if err != nil {
		return nil, err
	}
	var out ExchangeListingsResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GlobalMetrics fetches the aggregate market snapshot.
func (c *Client) GlobalMetrics(ctx context.Context) (*GlobalMetricsResponse, error) {
	resp, err := c.Get(ctx, PathGlobalMetrics, nil)
	if err != nil {
		return nil, err
	}
	var out GlobalMetricsResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
