package suites

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoqa/market-test-harness/browser"
	"github.com/cryptoqa/market-test-harness/framework/qatest"
)

func runWebSuite(t *qatest.T) {
	sctx := ctxFromT(t)

	baseURL := sctx.Config.GetString("web.base_url", "")
	if baseURL == "" {
		t.SkipWithReason("web.base_url is not configured")
	}

	session, err := browser.NewSession(browser.Options{
		BaseURL:     baseURL,
		Headless:    sctx.Config.GetBool("web.headless", true),
		StepTimeout: sctx.Config.GetDuration("web.step_timeout", 30*time.Second),
	}, t.DebugLogger())
	if err != nil {
		t.SkipWithReason(fmt.Sprintf("browser unavailable: %s", err))
	}
	t.Defer(session.Close)

	t.Run("navigation", func(t *qatest.T) { doNavigationTests(t, session) })
	t.Run("market data", func(t *qatest.T) { doMarketDataPageTests(t, session) })
	t.Run("search", func(t *qatest.T) { doSearchTests(t, session) })
}

func doNavigationTests(t *qatest.T, session *browser.Session) {
	home := browser.NewHomePage(session)

	t.Run("home page loads", func(t *qatest.T) {
		requireStep(t, session, home.Open())
		title, err := session.Title()
		require.NoError(t, err)
		assert.NotEmpty(t, title)
	})

	t.Run("exchanges tab opens the rankings", func(t *qatest.T) {
		requireStep(t, session, home.Open())
		requireStep(t, session, home.OpenExchangesTab())
		location, err := session.Location()
		require.NoError(t, err)
		assert.Contains(t, location, "/rankings/exchanges")
	})
}

func doMarketDataPageTests(t *qatest.T, session *browser.Session) {
	sctx := ctxFromT(t)
	home := browser.NewHomePage(session)

	t.Run("main table is populated", func(t *qatest.T) {
		requireStep(t, session, home.Open())
		count, err := home.RowCount()
		require.NoError(t, err)
		minRows := sctx.Config.GetInt("web.min_table_rows", 10)
		assert.GreaterOrEqual(t, count, minRows)

		names, err := home.AssetNames()
		require.NoError(t, err)
		require.NotEmpty(t, names)
		for i, name := range names {
			assert.NotEmpty(t, name, "row %d has no asset name", i)
		}
	})

	t.Run("table cells render prices", func(t *qatest.T) {
		requireStep(t, session, home.Open())
		prices, err := home.PriceTexts()
		require.NoError(t, err)
		require.NotEmpty(t, prices)
		for i, price := range prices {
			assert.True(t, browser.IsPriceText(price),
				"row %d shows %q, which does not look like a price", i, price)
		}
	})

	t.Run("coin detail page shows the asset", func(t *qatest.T) {
		symbol := sctx.Config.GetString("web.detail_symbol", "BTC")
		coin := browser.NewCoinPage(session)
		requireStep(t, session, coin.Open(browser.SlugForSymbol(symbol)))

		name, err := coin.Name()
		require.NoError(t, err)
		assert.NotEmpty(t, name)

		price, err := coin.PriceText()
		require.NoError(t, err)
		assert.True(t, browser.IsPriceText(price), "detail price %q is not rendered", price)
	})

	t.Run("exchange rankings are populated", func(t *qatest.T) {
		exchanges := browser.NewExchangePage(session)
		requireStep(t, session, exchanges.Open())
		names, err := exchanges.ExchangeNames()
		require.NoError(t, err)
		assert.NotEmpty(t, names)
	})
}

func doSearchTests(t *qatest.T, session *browser.Session) {
	sctx := ctxFromT(t)
	home := browser.NewHomePage(session)

	t.Run("search finds a known asset", func(t *qatest.T) {
		term := sctx.Config.GetString("web.search_term", "Bitcoin")
		requireStep(t, session, home.Open())
		requireStep(t, session, home.Search(term))
		count, err := home.SearchResultCount()
		require.NoError(t, err)
		assert.Greater(t, count, 0, "no results for %q", term)
	})
}

// requireStep fails the test when a browser step errors, saving a screenshot
// to the output directory first so the failure can be diagnosed.
func requireStep(t *qatest.T, session *browser.Session, err error) {
	t.Helper()
	if err == nil {
		return
	}
	sctx := ctxFromT(t)
	if sctx.OutputDir != "" {
		name := strings.ReplaceAll(t.ID().String(), "/", "_") + ".png"
		path := filepath.Join(sctx.OutputDir, "screenshots", name)
		if shotErr := session.Screenshot(path); shotErr == nil {
			t.Debug("saved failure screenshot to %s", path)
		}
	}
	require.NoError(t, err)
}
