package browser

import (
	"strings"
)

// Page objects for the market-data website. Selectors live here and nowhere
// else, so a site redesign touches one file.

const (
	selSearchInput      = "input[placeholder='Search']"
	selCryptoTable      = "table.cmc-table"
	selCryptoRows       = "table.cmc-table tbody tr"
	selCryptoNameCells  = "table.cmc-table tbody tr td:nth-child(3)"
	selCryptoPriceCells = "table.cmc-table tbody tr td:nth-child(4)"
	selExchangesTab     = "a[href^='/rankings/exchanges']"
	selCookieAccept     = "button.cookie-policy-banner-actions__button"
	selCoinPriceDisplay = "span.sc-coin-price, div.priceValue"
	selCoinName         = "h1, h2[data-role='coin-name']"
	selSearchResultRows = "div[data-role='search-results'] a, table.cmc-table tbody tr"
)

// HomePage is the landing page with the main cryptocurrency table.
type HomePage struct {
	s *Session
}

func NewHomePage(s *Session) *HomePage { return &HomePage{s: s} }

func (p *HomePage) Open() error {
	if err := p.s.Navigate("/"); err != nil {
		return err
	}
	p.dismissCookieBanner()
	return p.s.WaitVisible(selCryptoTable)
}

// dismissCookieBanner clicks the consent button if the banner is shown; its
// absence is not an error.
func (p *HomePage) dismissCookieBanner() {
	if n, err := p.s.Count(selCookieAccept); err == nil && n > 0 {
		_ = p.s.Click(selCookieAccept)
	}
}

// Search types a term into the site search and submits it.
func (p *HomePage) Search(term string) error {
	if err := p.s.Click(selSearchInput); err != nil {
		return err
	}
	return p.s.SendKeys(selSearchInput, term+"\n")
}

// SearchResultCount reports how many result rows the current page shows.
func (p *HomePage) SearchResultCount() (int, error) {
	return p.s.Count(selSearchResultRows)
}

// AssetNames returns the asset names visible in the main table.
func (p *HomePage) AssetNames() ([]string, error) {
	return p.s.TextAll(selCryptoNameCells)
}

// PriceTexts returns the price cells visible in the main table.
func (p *HomePage) PriceTexts() ([]string, error) {
	return p.s.TextAll(selCryptoPriceCells)
}

// RowCount returns the number of rows in the main table.
func (p *HomePage) RowCount() (int, error) {
	return p.s.Count(selCryptoRows)
}

// OpenExchangesTab navigates to the exchange rankings.
func (p *HomePage) OpenExchangesTab() error {
	return p.s.Click(selExchangesTab)
}

// CoinPage is the detail page of a single asset.
type CoinPage struct {
	s *Session
}

func NewCoinPage(s *Session) *CoinPage { return &CoinPage{s: s} }

// Open navigates to the detail page for the given asset slug ("bitcoin").
func (p *CoinPage) Open(slug string) error {
	return p.s.Navigate("/currencies/" + slug + "/")
}

// Name returns the displayed asset name.
func (p *CoinPage) Name() (string, error) {
	text, err := p.s.Text(selCoinName)
	return strings.TrimSpace(text), err
}

// PriceText returns the displayed price, e.g. "$45,000.12".
func (p *CoinPage) PriceText() (string, error) {
	text, err := p.s.Text(selCoinPriceDisplay)
	return strings.TrimSpace(text), err
}

// ExchangePage is the exchange rankings page.
type ExchangePage struct {
	s *Session
}

func NewExchangePage(s *Session) *ExchangePage { return &ExchangePage{s: s} }

func (p *ExchangePage) Open() error {
	if err := p.s.Navigate("/rankings/exchanges/"); err != nil {
		return err
	}
	return p.s.WaitVisible(selCryptoTable)
}

// ExchangeNames returns the exchange names visible in the rankings table.
func (p *ExchangePage) ExchangeNames() ([]string, error) {
	return p.s.TextAll(selCryptoNameCells)
}

// RowCount returns the number of rows in the rankings table.
func (p *ExchangePage) RowCount() (int, error) {
	return p.s.Count(selCryptoRows)
}

// IsPriceText reports whether a table cell looks like a rendered price.
func IsPriceText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	return strings.HasPrefix(text, "$") || strings.HasPrefix(text, "€") ||
		strings.ContainsAny(text, "0123456789")
}

// SlugForSymbol maps well-known ticker symbols to site slugs.
func SlugForSymbol(symbol string) string {
	known := map[string]string{
		"BTC":  "bitcoin",
		"ETH":  "ethereum",
		"XRP":  "xrp",
		"ADA":  "cardano",
		"SOL":  "solana",
		"DOGE": "dogecoin",
	}
	if slug, ok := known[strings.ToUpper(symbol)]; ok {
		return slug
	}
	return strings.ToLower(symbol)
}
