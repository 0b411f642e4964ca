package rod_browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
)

// Options configures the Chrome process.
type Options struct {
	Headless bool
	ExecPath string
}

// Launcher starts Chrome sessions driven by go-rod.
type Launcher struct {
	opts Options
}

// NewLauncher creates a new launcher implementation using go-rod.
func NewLauncher(opts Options) *Launcher {
	return &Launcher{opts: opts}
}

// Launch starts a browser, opens a blank tab and subscribes to console events.
func (l *Launcher) Launch(ctx context.Context) (repository.Browser, error) {
	ln := launcher.New().Headless(l.opts.Headless)
	if l.opts.ExecPath != "" {
		ln = ln.Bin(l.opts.ExecPath)
	}
	controlURL, err := ln.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		ln.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		ln.Kill()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	eventsCtx, stopEvents := context.WithCancel(ctx)
	b := &Browser{
		launcher:   ln,
		browser:    browser,
		page:       page,
		stopEvents: stopEvents,
	}
	// EachEvent enables the Runtime and Log domains for as long as the wait runs.
	wait := page.Context(eventsCtx).EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			b.record(entity.ConsoleEntry{
				Timestamp: time.Now(),
				Level:     string(ev.Type),
				Source:    "console-api",
				Text:      consoleArgs(ev.Args),
			})
		},
		func(ev *proto.LogEntryAdded) {
			if ev.Entry == nil {
				return
			}
			b.record(entity.ConsoleEntry{
				Timestamp: time.Now(),
				Level:     string(ev.Entry.Level),
				Source:    string(ev.Entry.Source),
				Text:      ev.Entry.Text,
			})
		},
	)
	go wait()

	return b, nil
}

// Browser is a single rod page implementing repository.Browser.
type Browser struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	stopEvents context.CancelFunc

	mu      sync.Mutex
	console []entity.ConsoleEntry
}

func (b *Browser) Navigate(url string) error {
	if err := b.page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (b *Browser) Fill(selector, value string) error {
	el, err := b.lookup(selector)
	if err != nil {
		return err
	}
	return el.Input(value)
}

func (b *Browser) Click(selector string) error {
	el, err := b.lookup(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (b *Browser) HTML() (string, error) {
	html, err := b.page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (b *Browser) URL() (string, error) {
	info, err := b.page.Info()
	if err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return info.URL, nil
}

func (b *Browser) ScrollTo(y int64) error {
	_, err := b.page.Eval(`(y) => window.scrollTo(0, y)`, y)
	return err
}

func (b *Browser) ScrollHeight() (int64, error) {
	res, err := b.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("read scroll height: %w", err)
	}
	return int64(res.Value.Int()), nil
}

func (b *Browser) Maximize() error {
	return b.page.SetWindow(&proto.BrowserBounds{WindowState: proto.BrowserWindowStateMaximized})
}

func (b *Browser) DrainConsole() []entity.ConsoleEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.console
	b.console = nil
	return entries
}

// Close closes the tab and the browser, then kills the process and removes its profile dir.
func (b *Browser) Close() error {
	b.stopEvents()
	err := b.page.Close()
	if cerr := b.browser.Close(); err == nil {
		err = cerr
	}
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// lookup resolves selector without rod's default retry-until-found behaviour.
func (b *Browser) lookup(selector string) (*rod.Element, error) {
	has, el, err := b.page.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return el, nil
}

func (b *Browser) record(entry entity.ConsoleEntry) {
	b.mu.Lock()
	b.console = append(b.console, entry)
	b.mu.Unlock()
}

func consoleArgs(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.String())
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
