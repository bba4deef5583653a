package suites

import (
	"context"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vegeta "github.com/tsenart/vegeta/v12/lib"

	"github.com/cryptoqa/market-test-harness/apiclient"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
	"github.com/cryptoqa/market-test-harness/loadgen"
)

func runPerformanceSuite(t *qatest.T) {
	sctx := ctxFromT(t)

	host := sctx.Config.GetString("performance.host", sctx.API.BaseURL())
	apiKey := sctx.Config.GetString("api.api_key", "")
	runner := loadgen.NewRunner(sctx.Logger)

	t.Run("api load", func(t *qatest.T) { doAPILoadTest(t, runner, host, apiKey) })
	t.Run("stress", func(t *qatest.T) { doStressTest(t, runner, host, apiKey) })
	t.Run("stability", func(t *qatest.T) { doStabilityTest(t, runner, host, apiKey) })
}

// doAPILoadTest replays a realistic traffic mix at a constant rate and holds
// the result to the configured latency and success thresholds.
func doAPILoadTest(t *qatest.T, runner *loadgen.Runner, host, apiKey string) {
	sctx := ctxFromT(t)

	targets := loadgen.WeightedTargets(host, apiKey, map[string]int{
		apiclient.PathCryptocurrencyListings + "?limit=100": 4,
		apiclient.PathGlobalMetrics:                         2,
		apiclient.PathExchangeListings + "?limit=20":        1,
	})
	summary := runner.Run(context.Background(), loadgen.Scenario{
		Name:    "api load",
		Targets: targets,
		Rate: vegeta.Rate{
			Freq: sctx.Config.GetInt("performance.rate", 20),
			Per:  time.Second,
		},
		Duration: sctx.Config.GetDuration("performance.duration", 15*time.Second),
	})
	assertThresholds(t, summary)
}

// doStressTest ramps the request rate in steps and requires the service to
// stay mostly healthy across the whole ramp.
func doStressTest(t *qatest.T, runner *loadgen.Runner, host, apiKey string) {
	sctx := ctxFromT(t)

	targets := loadgen.Targets(host, apiKey,
		apiclient.PathCryptocurrencyListings+"?limit=100")
	summary := runner.RunSteps(context.Background(), "stress", targets,
		sctx.Config.GetInt("performance.stress.start_rate", 10),
		sctx.Config.GetInt("performance.stress.steps", 3),
		sctx.Config.GetDuration("performance.stress.step_duration", 10*time.Second),
	)

	require.NotZero(t, summary.Requests, "no requests were sent")
	minSuccess := sctx.Config.GetFloat("performance.stress.min_success_ratio", 0.90)
	assert.GreaterOrEqual(t, summary.SuccessRatio, minSuccess,
		"success ratio %.3f under ramped load (errors: %v)", summary.SuccessRatio, summary.Errors)
}

// doStabilityTest holds a modest constant rate for a longer window, watching
// for degradation that only shows up over time.
func doStabilityTest(t *qatest.T, runner *loadgen.Runner, host, apiKey string) {
	sctx := ctxFromT(t)

	summary := runner.Run(context.Background(), loadgen.Scenario{
		Name:    "stability",
		Targets: loadgen.Targets(host, apiKey, apiclient.PathGlobalMetrics),
		Rate: vegeta.Rate{
			Freq: sctx.Config.GetInt("performance.stability.rate", 5),
			Per:  time.Second,
		},
		Duration: sctx.Config.GetDuration("performance.stability.duration", 30*time.Second),
	})
	assertThresholds(t, summary)
}

func assertThresholds(t *qatest.T, summary loadgen.Summary) {
	t.Helper()
	sctx := ctxFromT(t)

	require.NotZero(t, summary.Requests, "no requests were sent")

	minSuccess := sctx.Config.GetFloat("performance.min_success_ratio", 0.99)
	assert.GreaterOrEqual(t, summary.SuccessRatio, minSuccess,
		"success ratio %.3f is under the %.3f floor (errors: %v)",
		summary.SuccessRatio, minSuccess, summary.Errors)

	maxP95 := sctx.Config.GetDuration("performance.max_p95_latency", 2*time.Second)
	assert.LessOrEqual(t, summary.P95Latency, maxP95,
		"p95 latency %s exceeds the %s ceiling", summary.P95Latency, maxP95)

	t.Debug("%s: %d requests, success %.3f, p95 %s, max %s",
		summary.Scenario, summary.Requests, summary.SuccessRatio,
		summary.P95Latency, summary.MaxLatency)
}
