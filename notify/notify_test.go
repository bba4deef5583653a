package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/config"
	"github.com/cryptoqa/market-test-harness/reports"
)

func configWith(t *testing.T, yaml string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.yaml"), []byte(yaml), 0600))
	cfg, err := config.NewResolver(dir, "NOTIFY_TEST_").Resolve("test")
	require.NoError(t, err)
	return cfg
}

func sampleSummary() reports.RunSummary {
	return reports.RunSummary{Environment: "test", Total: 5, Passed: 4, Failed: 1}
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewFromConfig(configWith(t, `api: {}`), nil).Enabled())
	assert.True(t, NewFromConfig(configWith(t, `
notify:
  webhook_url: http://example.com/hook
`), nil).Enabled())
	assert.True(t, NewFromConfig(configWith(t, `
notify:
  command: "true"
`), nil).Enabled())
}

func TestSendWebhook(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	n := NewFromConfig(configWith(t, `
notify:
  webhook_url: `+server.URL+`
`), nil)
	require.NoError(t, n.Send(context.Background(), sampleSummary()))
	assert.Contains(t, string(received), `"environment":"test"`)
	assert.Contains(t, string(received), `"failed":1`)
}

func TestSendWebhookReportsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewFromConfig(configWith(t, `
notify:
  webhook_url: `+server.URL+`
`), nil)
	err := n.Send(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendCommandReceivesSummaryOnStdin(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "summary.json")
	n := NewFromConfig(configWith(t, `
notify:
  command: "cat > `+outFile+`"
`), nil)
	require.NoError(t, n.Send(context.Background(), sampleSummary()))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total":5`)
}

func TestSendCommandFailure(t *testing.T) {
	n := NewFromConfig(configWith(t, `
notify:
  command: "echo broken >&2; exit 3"
`), nil)
	err := n.Send(context.Background(), sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
