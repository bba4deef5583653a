package mockapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/eventsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/apiclient"
)

func startMock(t *testing.T, opts Options) (*Service, *httptest.Server) {
	t.Helper()
	service := New(opts, nil)
	server := httptest.NewServer(service.Handler())
	t.Cleanup(func() {
		server.Close()
		service.Close()
	})
	return service, server
}

func newClientFor(server *httptest.Server, apiKey string) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:    server.URL,
		APIKey:     apiKey,
		RetryCount: 1,
	}, nil)
}

func TestListingsEndpoint(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	out, err := client.CryptocurrencyListings(context.Background(), 10, "USD")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Status.ErrorCode)
	assert.Nil(t, out.Status.ErrorMessage)
	require.Len(t, out.Data, 10)
	assert.Equal(t, "BTC", out.Data[0].Symbol)
	require.Contains(t, out.Data[0].Quote, "USD")
	assert.Greater(t, out.Data[0].Quote["USD"].Price, 0.0)
}

func TestListingsRejectsBadLimit(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	_, err := client.Get(context.Background(),
		"/v1/cryptocurrency/listings/latest?limit=notanumber", nil)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 400, statusErr.StatusCode)
}

func TestInfoEndpoint(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	out, err := client.CryptocurrencyInfo(context.Background(), "btc")
	require.NoError(t, err)
	require.Contains(t, out.Data, "BTC", "symbols are normalized to upper case")
	assert.Equal(t, "Bitcoin", out.Data["BTC"].Name)
}

func TestInfoRequiresSymbol(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	resp, err := client.Get(context.Background(), "/v2/cryptocurrency/info", nil)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 400, statusErr.StatusCode)
	assert.Contains(t, string(resp.Body), "symbol")
}

func TestExchangeListingsEndpoint(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	out, err := client.ExchangeListings(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out.Data, 5)
	assert.Equal(t, "Binance", out.Data[0].Name)
}

func TestGlobalMetricsEndpoint(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	out, err := client.GlobalMetrics(context.Background())
	require.NoError(t, err)
	assert.Greater(t, out.Data.ActiveCryptocurrencies, 0)
	assert.Greater(t, out.Data.BTCDominance, 0.0)
}

func TestAPIKeyEnforcement(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1, APIKey: "expected-key"})

	_, err := newClientFor(server, "wrong-key").
		CryptocurrencyListings(context.Background(), 1, "USD")
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 401, statusErr.StatusCode)

	out, err := newClientFor(server, "expected-key").
		CryptocurrencyListings(context.Background(), 1, "USD")
	require.NoError(t, err)
	assert.Len(t, out.Data, 1)
}

func TestUnknownEndpoint(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1})
	client := newClientFor(server, "")

	_, err := client.Get(context.Background(), "/v1/nope", nil)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
}

func TestPriceStreamPublishesEvents(t *testing.T) {
	_, server := startMock(t, Options{Seed: 1, TickInterval: 10 * time.Millisecond})

	stream, err := eventsource.SubscribeWithURL(server.URL + "/v1/stream/prices")
	require.NoError(t, err)
	defer stream.Close()

	deadline := time.After(5 * time.Second)
	for received := 0; received < 3; {
		select {
		case ev := <-stream.Events:
			assert.Equal(t, "price", ev.Event())
			assert.Contains(t, ev.Data(), `"symbol"`)
			received++
		case <-deadline:
			t.Fatal("timed out waiting for price events")
		}
	}
}
