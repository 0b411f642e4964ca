package chromedp_browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/user/connections-scraper/internal/entity"
	"github.com/user/connections-scraper/internal/repository"
	"github.com/user/connections-scraper/pkg/logger"
)

// Options configures the Chrome process.
type Options struct {
	Headless bool
	ExecPath string
}

// Launcher starts Chrome sessions driven over the DevTools protocol.
type Launcher struct {
	opts Options
}

// NewLauncher creates a new launcher implementation using chromedp.
func NewLauncher(opts Options) *Launcher {
	return &Launcher{opts: opts}
}

// Launch starts a browser and subscribes to every console and log-domain event.
func (l *Launcher) Launch(ctx context.Context) (repository.Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(`Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36`),
	)
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Logf))

	b := &Browser{
		ctx:         taskCtx,
		cancelTask:  taskCancel,
		cancelAlloc: allocCancel,
	}
	chromedp.ListenTarget(taskCtx, b.onEvent)

	// The first Run starts the process; the log domain is not enabled by default.
	if err := chromedp.Run(taskCtx, cdplog.Enable()); err != nil {
		b.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return b, nil
}

// Browser is a single chromedp tab implementing repository.Browser.
type Browser struct {
	ctx         context.Context
	cancelTask  context.CancelFunc
	cancelAlloc context.CancelFunc

	mu      sync.Mutex
	console []entity.ConsoleEntry
}

func (b *Browser) Navigate(url string) error {
	if err := chromedp.Run(b.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (b *Browser) Fill(selector, value string) error {
	id, err := b.lookup(selector)
	if err != nil {
		return err
	}
	return chromedp.Run(b.ctx, chromedp.SendKeys([]cdp.NodeID{id}, value, chromedp.ByNodeID))
}

func (b *Browser) Click(selector string) error {
	id, err := b.lookup(selector)
	if err != nil {
		return err
	}
	return chromedp.Run(b.ctx, chromedp.Click([]cdp.NodeID{id}, chromedp.ByNodeID))
}

func (b *Browser) HTML() (string, error) {
	var html string
	if err := chromedp.Run(b.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (b *Browser) URL() (string, error) {
	var location string
	if err := chromedp.Run(b.ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

func (b *Browser) ScrollTo(y int64) error {
	return chromedp.Run(b.ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

func (b *Browser) ScrollHeight() (int64, error) {
	var height float64
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return 0, fmt.Errorf("read scroll height: %w", err)
	}
	return int64(height), nil
}

func (b *Browser) Maximize() error {
	return chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: browser.WindowStateMaximized}).Do(ctx)
	}))
}

func (b *Browser) DrainConsole() []entity.ConsoleEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.console
	b.console = nil
	return entries
}

// Close closes the browser gracefully, then kills the process and removes its profile dir.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelTask()
	b.cancelAlloc()
	return err
}

// lookup resolves selector without waiting for it to appear.
func (b *Browser) lookup(selector string) (cdp.NodeID, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(b.ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return 0, fmt.Errorf("query %s: %w", selector, err)
	}
	if len(nodes) == 0 {
		return 0, fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return nodes[0].NodeID, nil
}

func (b *Browser) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		b.record(entity.ConsoleEntry{
			Timestamp: timestampOf(ev.Timestamp),
			Level:     ev.Type.String(),
			Source:    "console-api",
			Text:      consoleArgs(ev.Args),
		})
	case *cdplog.EventEntryAdded:
		if ev.Entry == nil {
			return
		}
		b.record(entity.ConsoleEntry{
			Timestamp: timestampOf(ev.Entry.Timestamp),
			Level:     ev.Entry.Level.String(),
			Source:    ev.Entry.Source.String(),
			Text:      ev.Entry.Text,
		})
	}
}

func (b *Browser) record(entry entity.ConsoleEntry) {
	b.mu.Lock()
	b.console = append(b.console, entry)
	b.mu.Unlock()
}

func timestampOf(ts *runtime.Timestamp) time.Time {
	if ts == nil {
		return time.Now()
	}
	return ts.Time()
}

func consoleArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if len(a.Value) > 0 {
			raw := string(a.Value)
			if s, err := strconv.Unquote(raw); err == nil {
				raw = s
			}
			parts = append(parts, raw)
			continue
		}
		if a.Description != "" {
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}
