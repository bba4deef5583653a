// Package loadgen drives load-generation scenarios against the market-data
// API and condenses the raw results into a Summary the performance suite can
// assert on. It is thin orchestration over the vegeta attack engine.
package loadgen

import (
	"context"
	"net/http"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
	"go.uber.org/zap"
)

// Targets builds GET targets for the given URL paths against baseURL. When
// apiKey is non-empty it is attached the way the real API expects it.
func Targets(baseURL, apiKey string, paths ...string) []vegeta.Target {
	var header http.Header
	if apiKey != "" {
		header = http.Header{}
		header.Set("X-CMC_PRO_API_KEY", apiKey)
	}
	targets := make([]vegeta.Target, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, vegeta.Target{
			Method: "GET",
			URL:    baseURL + p,
			Header: header,
		})
	}
	return targets
}

// WeightedTargets repeats each path proportionally to its weight, so a static
// targeter cycling through the result approximates the requested traffic mix.
func WeightedTargets(baseURL, apiKey string, weighted map[string]int) []vegeta.Target {
	var targets []vegeta.Target
	for p, weight := range weighted {
		for i := 0; i < weight; i++ {
			targets = append(targets, Targets(baseURL, apiKey, p)...)
		}
	}
	return targets
}

// Summary is the aggregate outcome of one scenario.
type Summary struct {
	Scenario     string         `json:"scenario"`
	Requests     uint64         `json:"requests"`
	SuccessRatio float64        `json:"success_ratio"`
	MeanLatency  time.Duration  `json:"mean_latency"`
	P95Latency   time.Duration  `json:"p95_latency"`
	P99Latency   time.Duration  `json:"p99_latency"`
	MaxLatency   time.Duration  `json:"max_latency"`
	StatusCodes  map[string]int `json:"status_codes"`
	Errors       []string       `json:"errors"`
}

// Scenario describes one constant-rate attack.
type Scenario struct {
	Name     string
	Targets  []vegeta.Target
	Rate     vegeta.Rate
	Duration time.Duration
}

// Runner executes scenarios. Safe for sequential reuse; scenarios are not run
// concurrently with each other because they would skew each other's latency
// figures.
type Runner struct {
	logger  *zap.Logger
	timeout time.Duration
}

func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger.Named("loadgen"), timeout: 30 * time.Second}
}

// Run executes one scenario to completion, or until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, sc Scenario) Summary {
	r.logger.Info("starting load scenario",
		zap.String("scenario", sc.Name),
		zap.Int("rate_per_sec", sc.Rate.Freq),
		zap.Duration("duration", sc.Duration))

	attacker := vegeta.NewAttacker(vegeta.Timeout(r.timeout))
	targeter := vegeta.NewStaticTargeter(sc.Targets...)

	var metrics vegeta.Metrics
	results := attacker.Attack(targeter, sc.Rate, sc.Duration, sc.Name)
	for {
		select {
		case <-ctx.Done():
			attacker.Stop()
			// drain remaining results so the attacker can shut down
			for res := range results {
				metrics.Add(res)
			}
			return r.finish(sc.Name, &metrics)
		case res, ok := <-results:
			if !ok {
				return r.finish(sc.Name, &metrics)
			}
			metrics.Add(res)
		}
	}
}

// RunSteps executes a stepped ramp: the same targets at count rates,
// startRate, 2*startRate, ... count*startRate, each for stepDuration, with
// all results folded into one Summary. This is the shape of a stress test:
// keep raising the offered load and watch where latency and errors move.
func (r *Runner) RunSteps(
	ctx context.Context,
	name string,
	targets []vegeta.Target,
	startRate int,
	count int,
	stepDuration time.Duration,
) Summary {
	attacker := vegeta.NewAttacker(vegeta.Timeout(r.timeout))
	targeter := vegeta.NewStaticTargeter(targets...)

	var metrics vegeta.Metrics
	for step := 1; step <= count; step++ {
		if ctx.Err() != nil {
			break
		}
		rate := vegeta.Rate{Freq: startRate * step, Per: time.Second}
		r.logger.Info("stress step",
			zap.String("scenario", name),
			zap.Int("step", step),
			zap.Int("rate_per_sec", rate.Freq))
		for res := range attacker.Attack(targeter, rate, stepDuration, name) {
			metrics.Add(res)
		}
	}
	return r.finish(name, &metrics)
}

func (r *Runner) finish(name string, metrics *vegeta.Metrics) Summary {
	metrics.Close()
	summary := Summary{
		Scenario:     name,
		Requests:     metrics.Requests,
		SuccessRatio: metrics.Success,
		MeanLatency:  metrics.Latencies.Mean,
		P95Latency:   metrics.Latencies.P95,
		P99Latency:   metrics.Latencies.P99,
		MaxLatency:   metrics.Latencies.Max,
		StatusCodes:  metrics.StatusCodes,
		Errors:       metrics.Errors,
	}
	r.logger.Info("load scenario finished",
		zap.String("scenario", name),
		zap.Uint64("requests", summary.Requests),
		zap.Float64("success_ratio", summary.SuccessRatio),
		zap.Duration("p95", summary.P95Latency))
	return summary
}
