// Package browser drives a headless Chromium through Rod and exposes the
// rendered catalog as an engine.Surface.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/qlcatalog/internal/config"
	"github.com/IshaanNene/qlcatalog/internal/types"
)

// Browser owns one Chromium process, local or remote.
type Browser struct {
	cfg     config.BrowserConfig
	sel     config.SelectorConfig
	logger  *slog.Logger
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Launch starts Chromium, or connects to cfg.Browser.RemoteURL when set.
func Launch(cfg *config.Config, logger *slog.Logger) (*Browser, error) {
	b := &Browser{
		cfg:    cfg.Browser,
		sel:    cfg.Selectors,
		logger: logger.With("component", "browser"),
	}

	controlURL := b.cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().
			Headless(b.cfg.Headless).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("no-sandbox").
			Set("disable-blink-features", "AutomationControlled")
		if b.cfg.Bin != "" {
			l = l.Bin(b.cfg.Bin)
		}
		if b.cfg.UserDataDir != "" {
			l = l.UserDataDir(b.cfg.UserDataDir)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, &types.BrowserError{Op: "launch", Err: err}
		}
		controlURL = u
		b.lnch = l
		b.logger.Info("launched local chromium", "headless", b.cfg.Headless)
	} else {
		b.logger.Info("connecting to remote browser", "url", controlURL)
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, &types.BrowserError{Op: "connect", Err: err}
	}
	b.browser = rb

	return b, nil
}

// Open creates a tab, navigates it to pageURL and returns the tab as a
// Surface. The caller closes the Surface when the scrape is done.
func (b *Browser) Open(ctx context.Context, pageURL string) (*Surface, error) {
	b.mu.Lock()
	rb := b.browser
	b.mu.Unlock()
	if rb == nil {
		return nil, &types.BrowserError{Op: "open", URL: pageURL, Err: fmt.Errorf("browser closed")}
	}

	var page *rod.Page
	var err error
	if b.cfg.Stealth {
		page, err = stealth.Page(rb)
	} else {
		page, err = rb.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, &types.BrowserError{Op: "new tab", URL: pageURL, Err: err}
	}

	var router *rod.HijackRouter
	if len(b.cfg.BlockResources) > 0 {
		router = blockResources(page, b.cfg.BlockResources)
	}

	navCtx, cancel := context.WithTimeout(ctx, b.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		closeTab(page, router)
		return nil, &types.BrowserError{Op: "navigate", URL: pageURL, Err: err}
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		b.logger.Warn("wait load timeout, continuing", "url", pageURL, "error", err)
	}

	b.logger.Debug("tab opened", "url", pageURL, "stealth", b.cfg.Stealth, "blocked", b.cfg.BlockResources)
	return &Surface{
		page:   page,
		router: router,
		url:    pageURL,
		sel:    b.sel,
		logger: b.logger.With("url", pageURL),
	}, nil
}

// Close shuts the browser down and removes a launched process.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cleanup()
}

func (b *Browser) cleanup() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

func closeTab(page *rod.Page, router *rod.HijackRouter) {
	if router != nil {
		_ = router.Stop()
	}
	_ = page.Close()
}
