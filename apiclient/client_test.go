package apiclient

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/marketdata"
)

func newTestClient(serverURL string, opts Options) *Client {
	opts.BaseURL = serverURL
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	return New(opts, nil)
}

func TestRequestHeaders(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(map[string]interface{}{}, nil))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{APIKey: "secret-key"})
	_, err := client.Get(context.Background(), "/v1/test", nil)
	require.NoError(t, err)

	request := <-requestsCh
	assert.Equal(t, "application/json", request.Request.Header.Get("Accept"))
	assert.Equal(t, "secret-key", request.Request.Header.Get("X-CMC_PRO_API_KEY"))
	assert.Contains(t, request.Request.Header.Get("User-Agent"), "crypto-qa-harness")
}

func TestNoAPIKeyHeaderWhenUnset(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	_, err := client.Get(context.Background(), "/v1/test", nil)
	require.NoError(t, err)

	request := <-requestsCh
	_, present := request.Request.Header["X-Cmc_pro_api_key"]
	assert.False(t, present)
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.SequentialHandler(
		httphelpers.HandlerWithStatus(500),
		httphelpers.HandlerWithStatus(503),
		httphelpers.HandlerWithJSONResponse(map[string]string{"ok": "yes"}, nil),
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{RetryCount: 3})
	resp, err := client.Get(context.Background(), "/v1/test", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, requestsCh, 3)
}

func TestRetriesRateLimitedResponses(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.SequentialHandler(
		httphelpers.HandlerWithStatus(429),
		httphelpers.HandlerWithStatus(200),
	))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{RetryCount: 2})
	resp, err := client.Get(context.Background(), "/v1/test", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, requestsCh, 2)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(404, nil, []byte(`{"status": {"error_code": 404}}`)))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{RetryCount: 3})
	resp, err := client.Get(context.Background(), "/v1/missing", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.StatusCode)
	require.NotNil(t, resp, "error responses are returned so the envelope can be inspected")
	assert.Contains(t, string(resp.Body), "error_code")
	assert.Len(t, requestsCh, 1)
}

func TestExhaustedRetriesReturnLastStatus(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(500))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{RetryCount: 2})
	resp, err := client.Get(context.Background(), "/v1/test", nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 500, statusErr.StatusCode)
	require.NotNil(t, resp)
	assert.Len(t, requestsCh, 2)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	handler := httphelpers.HandlerWithStatus(500)
	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL, Options{RetryCount: 5, RetryDelay: time.Minute})
	_, err := client.Get(ctx, "/v1/test", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCryptocurrencyListingsEndpoint(t *testing.T) {
	payload := ListingsResponse{
		Status: marketdata.Status{ErrorCode: 0},
		Data:   marketdata.NewGenerator(1).Cryptocurrencies(2),
	}
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithJSONResponse(payload, nil))
	server := httptest.NewServer(handler)
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	out, err := client.CryptocurrencyListings(context.Background(), 2, "EUR")
	require.NoError(t, err)
	require.Len(t, out.Data, 2)
	assert.Equal(t, "BTC", out.Data[0].Symbol)

	request := <-requestsCh
	assert.Equal(t, PathCryptocurrencyListings, request.Request.URL.Path)
	assert.Equal(t, "2", request.Request.URL.Query().Get("limit"))
	assert.Equal(t, "EUR", request.Request.URL.Query().Get("convert"))
}

func TestCryptocurrencyInfoEndpoint(t *testing.T) {
	payload := InfoResponse{
		Status: marketdata.Status{ErrorCode: 0},
		Data:   marketdata.NewGenerator(1).Metadata("BTC"),
	}
	server := httptest.NewServer(httphelpers.HandlerWithJSONResponse(payload, nil))
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	out, err := client.CryptocurrencyInfo(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", out.Data["BTC"].Name)
}

func TestExchangeListingsEndpoint(t *testing.T) {
	payload := ExchangeListingsResponse{
		Status: marketdata.Status{ErrorCode: 0},
		Data:   marketdata.NewGenerator(1).Exchanges(3),
	}
	server := httptest.NewServer(httphelpers.HandlerWithJSONResponse(payload, nil))
	defer server.Close()

	client := newTestClient(server.URL, Options{})
	out, err := client.ExchangeListings(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out.Data, 3)
	assert.Equal(t, "Binance", out.Data[0].Name)
}
