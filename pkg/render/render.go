// Package render loads a page in a headless browser and returns its live DOM
// as HTML, so scripted pages can be softened the way a reader sees them.
package render

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/playwright-community/playwright-go"
)

const (
	// DefaultTimeout bounds navigation.
	DefaultTimeout = 30 * time.Second
	// DefaultWaitUntil waits for the load event.
	DefaultWaitUntil = "load"

	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Options configures a fetch.
type Options struct {
	// Headed shows the browser window.
	Headed bool
	// WaitUntil is one of "load", "domcontentloaded" or "networkidle".
	WaitUntil string
	// Timeout bounds navigation; zero selects DefaultTimeout.
	Timeout time.Duration
	// Install downloads the browser driver when missing.
	Install bool
}

func (o Options) withDefaults() (Options, error) {
	if o.WaitUntil == "" {
		o.WaitUntil = DefaultWaitUntil
	}
	switch o.WaitUntil {
	case "load", "domcontentloaded", "networkidle", "commit":
	default:
		return o, fmt.Errorf("invalid wait_until %q", o.WaitUntil)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o, nil
}

// ValidateURL accepts absolute http, https and file URLs.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("invalid url %q: missing host", raw)
		}
	case "file":
	default:
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return nil
}

// Fetch navigates to pageURL and returns the rendered document. Canceling
// ctx closes the browser and aborts the fetch.
func Fetch(ctx context.Context, pageURL string, opts Options) (string, error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return "", err
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return "", fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return "", fmt.Errorf("failed to start playwright: %w", err)
	}
	defer pw.Stop()

	headless := !opts.Headed
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		html, err := load(browser, pageURL, opts)
		done <- result{html, err}
	}()

	select {
	case r := <-done:
		return r.html, r.err
	case <-ctx.Done():
		browser.Close()
		<-done
		return "", ctx.Err()
	}
}

// markHiddenScript copies computed visibility into attributes so it
// survives serialization. It returns the number of elements marked hidden.
var markHiddenScript = `() => {
	const hiddenAttr = ` + "'" + dom.HiddenAttr + "'" + `;
	const visibilityAttr = ` + "'" + dom.VisibilityAttr + "'" + `;
	let marked = 0;
	for (const el of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || parseFloat(style.opacity) === 0) {
			el.setAttribute(hiddenAttr, '');
			marked++;
			continue;
		}
		const parent = el.parentElement ? window.getComputedStyle(el.parentElement).visibility : 'visible';
		if (style.visibility !== parent) {
			el.setAttribute(visibilityAttr, style.visibility);
		}
	}
	return marked;
}`

func load(browser playwright.Browser, pageURL string, opts Options) (string, error) {
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create context: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	timeout := float64(opts.Timeout.Milliseconds())
	waitUntil := playwright.WaitUntilState(opts.WaitUntil)
	if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &timeout,
	}); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	if _, err := page.Evaluate(markHiddenScript); err != nil {
		return "", fmt.Errorf("failed to mark hidden elements: %w", err)
	}

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}
