package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

type commandParams struct {
	suite       string
	environment string
	configDir   string
	outputDir   string
	junitFile   string
	filters     qatest.RegexFilters
	debug       bool
	debugAll    bool
}

func (p *commandParams) Read(args []string) error {
	app := kingpin.New("market-test-harness",
		"QA harness for the market-data platform: API, web, and performance suites")

	app.Flag("suite", "Suite selection: api, web, performance, or all").
		Default("all").EnumVar(&p.suite, "api", "web", "performance", "all")
	app.Flag("env", "Environment whose configuration overlay to apply").
		Default("test").StringVar(&p.environment)
	app.Flag("config-dir", "Directory containing configuration documents").
		Default("config-files").StringVar(&p.configDir)
	app.Flag("output-dir", "Directory to write reports and artifacts into").
		Default("reports").StringVar(&p.outputDir)
	app.Flag("junit", "Path of a JUnit XML file to write (none if omitted)").
		StringVar(&p.junitFile)
	app.Flag("run", "Regex pattern(s) for test IDs that should run").
		SetValue(&p.filters.MustMatch)
	app.Flag("skip", "Regex pattern(s) for test IDs that should be skipped").
		SetValue(&p.filters.MustNotMatch)
	app.Flag("debug", "Enable debug output for failed tests").
		BoolVar(&p.debug)
	app.Flag("debug-all", "Enable debug output for all tests").
		BoolVar(&p.debugAll)

	if _, err := app.Parse(args); err != nil {
		return fmt.Errorf("%w\n(use --help for usage)", err)
	}
	return nil
}
