// Package browser renders JavaScript-heavy pages to HTML for the scrape adapters.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultScrollPause = 2 * time.Second
)

type Cookie struct {
	Name  string
	Value string
}

// Page is one render request.
type Page struct {
	URL     string
	Cookies []Cookie
	// WaitSelector is awaited before the HTML is captured; "body" when empty.
	WaitSelector string
	// Scrolls is how many times the page is scrolled to the bottom to trigger lazy loading.
	Scrolls int
}

type Renderer interface {
	Render(ctx context.Context, page Page) (string, error)
}

type Config struct {
	UserAgent   string
	Headful     bool
	ScrollPause time.Duration
	ExecPath    string
}

var _ Renderer = (*Chrome)(nil)

// Chrome renders pages with a fresh headless Chrome per call.
type Chrome struct {
	cfg Config
}

func NewChrome(cfg Config) *Chrome {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.ScrollPause <= 0 {
		cfg.ScrollPause = DefaultScrollPause
	}
	return &Chrome{cfg: cfg}
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", !c.cfg.Headful),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(c.cfg.UserAgent),
	)
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}
	return opts
}

func (c *Chrome) Render(ctx context.Context, page Page) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	actions, err := c.actions(page)
	if err != nil {
		return "", err
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	start := time.Now()
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", hostOf(page.URL), err)
	}
	slog.Debug("page rendered", "host", hostOf(page.URL), "bytes", len(html), "took", time.Since(start))

	return html, nil
}

func (c *Chrome) actions(page Page) ([]chromedp.Action, error) {
	wait := page.WaitSelector
	if wait == "" {
		wait = "body"
	}

	var actions []chromedp.Action
	if len(page.Cookies) > 0 {
		origin, err := originOf(page.URL)
		if err != nil {
			return nil, err
		}
		actions = append(actions,
			chromedp.Navigate(origin),
			chromedp.Evaluate(CookieScript(page.Cookies), nil),
		)
	}

	actions = append(actions,
		chromedp.Navigate(page.URL),
		chromedp.WaitReady(wait, chromedp.ByQuery),
	)
	for i := 0; i < page.Scrolls; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(c.cfg.ScrollPause),
		)
	}
	return actions, nil
}

// CookieScript builds the document.cookie assignments that install cookies on the current origin.
func CookieScript(cookies []Cookie) string {
	var b strings.Builder
	for _, ck := range cookies {
		fmt.Fprintf(&b, "document.cookie = %q;", ck.Name+"="+url.QueryEscape(ck.Value)+"; path=/")
	}
	return b.String()
}

// ParseCookies reads a "name=value; name2=value2" header string.
func ParseCookies(header string) []Cookie {
	var cookies []Cookie
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		cookies = append(cookies, Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return cookies
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid page url %q", raw)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Host
	}
	return raw
}
