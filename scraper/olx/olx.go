package olx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"olx-monitor/config"
	"olx-monitor/models"
	"olx-monitor/scraper"
	"olx-monitor/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// hideWebdriverJS runs before any page script so the site does not see an
// automated browser.
const hideWebdriverJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

// Scraper renders OLX search pages in a headless browser and extracts the
// listing cards. The browser is started on first use and kept until Close.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	retry   *utils.RetryConfig
	limiter *rate.Limiter // spaces consecutive page loads

	// fetch returns the HTML of one results page; renderPage by default.
	fetch func(ctx context.Context, pageURL string) (string, error)

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

var _ scraper.Extractor = (*Scraper)(nil)

// New creates an OLX Scraper. No browser is launched until Extract.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	s := &Scraper{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		limiter: newPageLimiter(cfg.RateLimitMs),
	}
	s.fetch = s.renderPage
	return s
}

func newPageLimiter(rateLimitMs int) *rate.Limiter {
	if rateLimitMs <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(rateLimitMs)*time.Millisecond), 1)
}

// Extract loads targetURL and up to PagesToScrape follow-up pages and returns
// every card found. A failure on the first page fails the whole extraction; a
// failure on a later page keeps what was collected so far.
func (s *Scraper) Extract(ctx context.Context, targetURL string) ([]*models.RawCandidate, error) {
	visitedPages := utils.NewURLSet()
	seenCards := utils.NewURLSet()
	candidates := make([]*models.RawCandidate, 0)

	currentURL := targetURL
	visitedPages.Add(currentURL)

	for pageNum := 1; pageNum <= s.cfg.PagesToScrape; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, &scraper.ExtractionError{Op: "navigate", URL: currentURL, Err: err}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &scraper.ExtractionError{Op: "navigate", URL: currentURL, Err: err}
		}

		s.logger.Info("[olx] Scraping page %d: %s", pageNum, currentURL)

		cards, nextURL, err := s.scrapePage(ctx, currentURL, pageNum)
		if err != nil {
			if pageNum == 1 {
				return nil, err
			}
			s.logger.Warn("[olx] Page %d failed, keeping %d cards: %v", pageNum, len(candidates), err)
			break
		}

		for _, c := range cards {
			if c.URL != "" && !seenCards.Add(c.URL) {
				s.logger.Debug("[olx] Skipping duplicate card: %s", c.URL)
				continue
			}
			candidates = append(candidates, c)
		}

		s.logger.Debug("[olx] Page %d: %d cards, %d collected", pageNum, len(cards), len(candidates))

		if nextURL == "" || !visitedPages.Add(nextURL) {
			break
		}
		currentURL = nextURL
	}

	s.logger.Info("[olx] Extraction complete: %d raw cards", len(candidates))
	return candidates, nil
}

// scrapePage renders one results page and parses its cards.
func (s *Scraper) scrapePage(ctx context.Context, pageURL string, pageNum int) ([]*models.RawCandidate, string, error) {
	var html string

	err := s.retry.Do(ctx, fmt.Sprintf("olx-page-%d", pageNum), func() error {
		var err error
		html, err = s.fetch(ctx, pageURL)
		return err
	})
	var launchErr *launchError
	if errors.As(err, &launchErr) {
		return nil, "", &scraper.ExtractionError{Op: "launch", URL: pageURL, Err: launchErr.err}
	}
	if err != nil {
		return nil, "", &scraper.ExtractionError{Op: "navigate", URL: pageURL, Err: err}
	}

	cards, nextURL, err := ParseListingPage(html, pageURL, time.Now())
	if err != nil {
		return nil, "", &scraper.ExtractionError{Op: "parse", URL: pageURL, Err: err}
	}
	return cards, nextURL, nil
}

// launchError marks a browser that could not be started, as opposed to a page
// that failed to load.
type launchError struct{ err error }

func (e *launchError) Error() string { return e.err.Error() }
func (e *launchError) Unwrap() error { return e.err }

// renderPage is the default fetch: it renders pageURL in the shared browser.
func (s *Scraper) renderPage(ctx context.Context, pageURL string) (string, error) {
	browserCtx, err := s.browser()
	if err != nil {
		return "", &launchError{err: err}
	}
	return s.render(ctx, browserCtx, pageURL)
}

// render opens pageURL in a fresh tab, waits for the listing grid and returns
// the document HTML.
func (s *Scraper) render(ctx, browserCtx context.Context, pageURL string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	// Cancelling the caller's context closes the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.PageTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(s.cfg.ViewportWidth), int64(s.cfg.ViewportHeight)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(GridSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("listing grid not visible within %v: %w", s.cfg.PageTimeout, err)
		}
		return "", fmt.Errorf("chromedp render: %w", err)
	}
	return html, nil
}

// browser returns the shared browser context, launching Chrome on first use.
func (s *Scraper) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	chromeBin := s.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Info("[olx] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(s.cfg.ViewportWidth, s.cfg.ViewportHeight),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run starts the browser so every page opens as a tab of it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.cancelBrowser = cancelBrowser
	s.cancelAlloc = cancelAlloc
	return browserCtx, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx == nil {
		return nil
	}
	s.cancelBrowser()
	s.cancelAlloc()
	s.browserCtx = nil
	s.cancelBrowser = nil
	s.cancelAlloc = nil
	s.logger.Info("[olx] Browser closed")
	return nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
