package suites

import (
	"encoding/json"
	"time"

	"github.com/launchdarkly/eventsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/apiclient"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
	"github.com/cryptoqa/market-test-harness/marketdata"
)

func doPriceStreamTests(t *qatest.T) {
	sctx := ctxFromT(t)
	if !sctx.Config.GetBool("api.stream_enabled", false) {
		t.SkipWithReason("price streaming is disabled for this environment")
	}

	streamURL := sctx.API.BaseURL() + apiclient.PathPriceStream
	waitFor := sctx.Config.GetDuration("api.stream_wait", 15*time.Second)

	t.Run("delivers well-formed price events", func(t *qatest.T) {
		ticks := collectTicks(t, streamURL, 3, waitFor)
		for _, tick := range ticks {
			assert.NotEmpty(t, tick.Symbol)
			assert.Greater(t, tick.Price, 0.0)
			assert.NotZero(t, tick.Timestamp)
		}
	})

	t.Run("event timestamps move forward", func(t *qatest.T) {
		ticks := collectTicks(t, streamURL, 4, waitFor)
		for i := 1; i < len(ticks); i++ {
			assert.GreaterOrEqual(t, ticks[i].Timestamp, ticks[i-1].Timestamp,
				"tick %d went backwards in time", i)
		}
	})
}

// collectTicks subscribes to the stream and blocks until count price events
// arrive or the deadline passes.
func collectTicks(t *qatest.T, streamURL string, count int, waitFor time.Duration) []marketdata.PriceTick {
	t.Helper()
	stream, err := eventsource.SubscribeWithURL(streamURL)
	require.NoError(t, err)
	t.Defer(stream.Close)

	deadline := time.After(waitFor)
	ticks := make([]marketdata.PriceTick, 0, count)
	for len(ticks) < count {
		select {
		case ev, ok := <-stream.Events:
			require.True(t, ok, "stream closed before enough events arrived")
			require.Equal(t, "price", ev.Event())
			var tick marketdata.PriceTick
			require.NoError(t, json.Unmarshal([]byte(ev.Data()), &tick))
			ticks = append(ticks, tick)
			t.Debug("price event: %s %.2f", tick.Symbol, tick.Price)
		case <-deadline:
			t.Errorf("received only %d of %d price events within %s", len(ticks), count, waitFor)
			t.FailNow()
		}
	}
	return ticks
}
