// Package browser wraps chromedp with the small set of operations the web
// suites need, plus page objects for the market-data website. A Session owns
// one browser tab; the web suite creates one session per suite scope and
// reuses it across subtests.
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/cryptoqa/market-test-harness/framework"
)

// Options configures a browser session.
type Options struct {
	BaseURL  string
	Headless bool

	// StepTimeout bounds each individual operation (navigate, click, read).
	StepTimeout time.Duration
}

type Session struct {
	opts        Options
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      framework.Logger
}

// NewSession starts a browser and verifies it is usable. Callers should treat
// an error here as "no browser available" and skip web tests rather than fail
// them.
func NewSession(opts Options, logger framework.Logger) (*Session, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 30 * time.Second
	}

	allocatorOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1400, 1000),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:        opts,
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}

	// Starting the browser is deferred until the first action; run an empty
	// task list now so a missing browser binary surfaces here.
	startCtx, cancel := context.WithTimeout(ctx, opts.StepTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("cannot start browser: %w", err)
	}
	return s, nil
}

func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
}

// BaseURL returns the website base URL the session navigates relative to.
func (s *Session) BaseURL() string { return s.opts.BaseURL }

func (s *Session) run(description string, actions ...chromedp.Action) error {
	s.logger.Printf("browser: %s", description)
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.StepTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, actions...); err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	return nil
}

// Navigate opens baseURL+path and waits for the document body.
func (s *Session) Navigate(path string) error {
	return s.run(fmt.Sprintf("navigate to %s", path),
		chromedp.Navigate(s.opts.BaseURL+path),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// WaitVisible waits for an element matching the CSS selector.
func (s *Session) WaitVisible(selector string) error {
	return s.run(fmt.Sprintf("wait for %q", selector),
		chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Click clicks the first element matching the CSS selector.
func (s *Session) Click(selector string) error {
	return s.run(fmt.Sprintf("click %q", selector),
		chromedp.Click(selector, chromedp.ByQuery))
}

// SendKeys types text into the first element matching the CSS selector.
func (s *Session) SendKeys(selector, text string) error {
	return s.run(fmt.Sprintf("type into %q", selector),
		chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// Text returns the text content of the first element matching the CSS selector.
func (s *Session) Text(selector string) (string, error) {
	var out string
	err := s.run(fmt.Sprintf("read text of %q", selector),
		chromedp.Text(selector, &out, chromedp.ByQuery))
	return out, err
}

// TextAll returns the text content of every element matching the CSS selector.
func (s *Session) TextAll(selector string) ([]string, error) {
	var out []string
	err := s.run(fmt.Sprintf("read all texts of %q", selector),
		chromedp.Evaluate(fmt.Sprintf(
			`Array.from(document.querySelectorAll(%q)).map(e => e.textContent.trim())`, selector), &out))
	return out, err
}

// Count returns the number of elements matching the CSS selector.
func (s *Session) Count(selector string) (int, error) {
	var out int
	err := s.run(fmt.Sprintf("count %q", selector),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), &out))
	return out, err
}

// Title returns the document title.
func (s *Session) Title() (string, error) {
	var out string
	err := s.run("read title", chromedp.Title(&out))
	return out, err
}

// Location returns the current page URL.
func (s *Session) Location() (string, error) {
	var out string
	err := s.run("read location", chromedp.Location(&out))
	return out, err
}

// Screenshot captures the viewport into a PNG file. The web suites call this
// on failure so the report directory holds evidence of what the page looked
// like.
func (s *Session) Screenshot(path string) error {
	var buf []byte
	if err := s.run("capture screenshot", chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644) //nolint:gosec
}
