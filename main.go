package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"github.com/cryptoqa/market-test-harness/apiclient"
	"github.com/cryptoqa/market-test-harness/config"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
	"github.com/cryptoqa/market-test-harness/mockapi"
	"github.com/cryptoqa/market-test-harness/notify"
	"github.com/cryptoqa/market-test-harness/reports"
	"github.com/cryptoqa/market-test-harness/suites"
)

//go:embed VERSION
var versionString string

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var params commandParams
	if err := params.Read(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	version := strings.TrimSpace(versionString)
	fmt.Printf("market-test-harness v%s (environment: %s)\n\n", version, params.environment)

	logger, err := buildLogger(params.debug || params.debugAll)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logging: %s\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.NewResolver(params.configDir, "").Resolve(params.environment)
	if err != nil {
		logger.Error("configuration error", zap.Error(err))
		return 1
	}

	outputDir := filepath.Join(params.outputDir, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(filepath.Join(outputDir, "screenshots"), 0755); err != nil { //nolint:gosec
		logger.Error("cannot create output directory", zap.Error(err))
		return 1
	}

	client := apiclient.NewFromConfig(cfg, logger)
	if cfg.GetBool("api.use_mock", false) {
		mockURL, closeMock, err := startMockService(cfg, logger)
		if err != nil {
			logger.Error("cannot start mock service", zap.Error(err))
			return 1
		}
		defer closeMock()
		client = apiclient.New(apiclient.Options{
			BaseURL:    mockURL,
			APIKey:     cfg.GetString("api.api_key", ""),
			Timeout:    cfg.GetDuration("api.timeout", 30*time.Second),
			RetryCount: cfg.GetInt("api.retry_count", 3),
		}, logger)
	}

	selection, err := suites.ParseSelection(params.suite)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	qatest.PrintFilterDescription(params.filters)

	recorder := reports.NewRecorder(params.environment)
	testLogger := &qatest.MultiTestLogger{Loggers: []qatest.TestLogger{
		qatest.ConsoleTestLogger{
			DebugOutputOnFailure: params.debug || params.debugAll,
			DebugOutputOnSuccess: params.debugAll,
		},
		recorder,
	}}
	if params.junitFile != "" {
		testLogger.Loggers = append(testLogger.Loggers,
			qatest.NewJUnitTestLogger(params.junitFile, params.environment, params.filters))
	}

	sctx := &suites.Context{
		Config:    cfg,
		API:       client,
		Logger:    logger,
		OutputDir: outputDir,
	}
	results := suites.RunSuites(sctx, selection, params.filters, testLogger)

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		logger.Error("error writing test log", zap.Error(err))
	}

	summary := recorder.Summary()
	if err := reports.WriteJSON(summary, filepath.Join(outputDir, "report.json")); err != nil {
		logger.Error("cannot write JSON report", zap.Error(err))
	}
	if err := reports.WriteHTML(summary, filepath.Join(outputDir, "report.html")); err != nil {
		logger.Error("cannot write HTML report", zap.Error(err))
	}
	fmt.Printf("Reports written to %s\n", outputDir)

	if notifier := notify.NewFromConfig(cfg, logger); notifier.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := notifier.Send(ctx, summary); err != nil {
			logger.Warn("notification delivery failed", zap.Error(err))
		}
	}

	if !results.OK() {
		return 1
	}
	return 0
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Encoding = "console"
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zapConfig.Build()
}

// startMockService brings up the in-process stand-in for the real API and
// returns its base URL along with a shutdown function.
func startMockService(cfg *config.Config, logger *zap.Logger) (string, func(), error) {
	port := cfg.GetInt("api.mock_port", 8800)
	service := mockapi.New(mockapi.Options{
		APIKey:       cfg.GetString("api.api_key", ""),
		Seed:         int64(cfg.GetInt("api.mock_seed", 1)),
		TickInterval: cfg.GetDuration("api.mock_tick_interval", time.Second),
	}, logger)
	if err := service.Start(port); err != nil {
		service.Close()
		return "", nil, err
	}
	return fmt.Sprintf("http://localhost:%d", port), service.Close, nil
}
