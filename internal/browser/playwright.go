// Package browser owns the Playwright lifecycle and the concrete form
// surface the driver runs against.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Manager wraps the Playwright runtime and one Chromium instance. One
// Manager serves a whole run; contexts are cheap, browsers are not.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewManager starts Playwright and launches Chromium. The caller must Close.
func NewManager(headless bool) (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-first-run",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	return &Manager{pw: pw, browser: browser}, nil
}

// NewContext creates a browser context with a desktop fingerprint and the
// given session cookies already installed.
func (m *Manager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	ctx, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(userAgent),
		Viewport:   &playwright.Size{Width: 1366, Height: 768},
		Locale:     playwright.String("en-AU"),
		TimezoneId: playwright.String("Australia/Sydney"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	if len(cookies) > 0 {
		if err := ctx.AddCookies(cookies); err != nil {
			ctx.Close()
			return nil, fmt.Errorf("installing cookies: %w", err)
		}
	}
	return ctx, nil
}

// Close shuts the browser and the Playwright runtime down.
func (m *Manager) Close() error {
	if err := m.browser.Close(); err != nil {
		m.pw.Stop()
		return fmt.Errorf("closing browser: %w", err)
	}
	return m.pw.Stop()
}
