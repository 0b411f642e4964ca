package repository

import (
	"context"

	"github.com/user/connections-scraper/internal/entity"
)

// BrowserLauncher starts exclusively-owned browser sessions.
type BrowserLauncher interface {
	// Launch starts a browser with console capture enabled. The session is bound to ctx:
	// cancelling ctx tears the browser down.
	Launch(ctx context.Context) (Browser, error)
}

// Browser defines the capabilities the page synchronizer consumes from a driver.
// Element lookups fail immediately with ErrElementNotFound; they never wait.
type Browser interface {
	// Navigate loads url in the current tab without waiting for readiness.
	Navigate(url string) error
	// Fill types value into the first element matching the CSS selector.
	Fill(selector, value string) error
	// Click clicks the first element matching the CSS selector.
	Click(selector string) error
	// HTML returns the outer HTML of the current document.
	HTML() (string, error)
	// URL returns the location of the current document.
	URL() (string, error)
	// ScrollTo scrolls the viewport vertically to y.
	ScrollTo(y int64) error
	// ScrollHeight reads document.body.scrollHeight.
	ScrollHeight() (int64, error)
	// Maximize maximizes the browser window.
	Maximize() error
	// DrainConsole returns the console entries collected since the last drain.
	DrainConsole() []entity.ConsoleEntry
	// Close closes the tab and terminates the browser process.
	Close() error
}
