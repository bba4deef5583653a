// Package suites contains the QA test suites that run inside the harness's
// own test engine. The command-line tool selects which suites to run; each
// suite is a scope tree of subtests executed through qatest.Run.
package suites

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cryptoqa/market-test-harness/apiclient"
	"github.com/cryptoqa/market-test-harness/config"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

// Context carries the shared collaborators every suite needs. It is attached
// to the run through TestConfiguration.Context.
type Context struct {
	Config *config.Config
	API    *apiclient.Client
	Logger *zap.Logger

	// OutputDir is where suites may drop artifacts such as screenshots.
	OutputDir string
}

func ctxFromT(t *qatest.T) *Context {
	sctx, ok := t.Context().(*Context)
	if !ok || sctx == nil {
		panic("test run was started without a suite context")
	}
	return sctx
}

// Selection names the suites one run executes.
type Selection struct {
	API         bool
	Web         bool
	Performance bool
}

// ParseSelection interprets the --suite command-line value.
func ParseSelection(name string) (Selection, error) {
	switch strings.ToLower(name) {
	case "api":
		return Selection{API: true}, nil
	case "web":
		return Selection{Web: true}, nil
	case "performance":
		return Selection{Performance: true}, nil
	case "", "all":
		return Selection{API: true, Web: true, Performance: true}, nil
	}
	return Selection{}, fmt.Errorf("unknown suite %q (valid: api, web, performance, all)", name)
}

// RunSuites executes the selected suites and returns the aggregated results.
func RunSuites(
	sctx *Context,
	sel Selection,
	filters qatest.RegexFilters,
	testLogger qatest.TestLogger,
) qatest.Results {
	cfg := qatest.TestConfiguration{
		Filter:     filters.Match,
		TestLogger: testLogger,
		Context:    sctx,
	}
	return qatest.Run(cfg, func(t *qatest.T) {
		if sel.API {
			t.Run("api", runAPISuite)
		}
		if sel.Web {
			t.Run("web", runWebSuite)
		}
		if sel.Performance {
			t.Run("performance", runPerformanceSuite)
		}
	})
}
