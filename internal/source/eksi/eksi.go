// Package eksi scrapes the latest entries of an Ekşi Sözlük topic matching a keyword.
package eksi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ozgurerrdem/persona-watch/internal/browser"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	Name           = "eksi"
	DefaultBaseURL = "https://eksisozluk.com"
	platform       = "Ekşi Sözlük"
	anonymous      = "anonim"
)

var (
	titlePattern     = regexp.MustCompile(`'etitle':\s*'([^']+)'`)
	contentIDPattern = regexp.MustCompile(`'econtentid':\s*'([^']+)'`)
	topicHrefPattern = regexp.MustCompile(`--\d+$`)
	pageParamPattern = regexp.MustCompile(`[?&]p=(\d+)`)
)

type Config struct {
	BaseURL string
	// Cookie is a raw "name=value; name2=value2" string installed before searching.
	Cookie string
}

type Adapter struct {
	cfg      Config
	renderer browser.Renderer
	now      func() time.Time
}

var _ source.Adapter = (*Adapter)(nil)

func New(cfg Config, renderer browser.Renderer) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Adapter{cfg: cfg, renderer: renderer, now: time.Now}
}

func (a *Adapter) Name() string     { return Name }
func (a *Adapter) Platform() string { return platform }

func (a *Adapter) page(u string) browser.Page {
	return browser.Page{URL: u, Cookies: browser.ParseCookies(a.cfg.Cookie)}
}

// Scan resolves the topic for keyword and reads its last two pages, where the newest entries are.
func (a *Adapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, nil
	}

	searchURL := a.cfg.BaseURL + "/?q=" + url.QueryEscape(normalize.JoinWords(keyword, " "))
	searchHTML, err := a.renderer.Render(ctx, a.page(searchURL))
	if err != nil {
		return nil, err
	}

	topicURL, direct := a.topicURL(searchHTML)
	if topicURL == "" {
		slog.Debug("eksi topic not found", "keyword", keyword)
		return nil, nil
	}

	pagerHTML := searchHTML
	if !direct {
		if pagerHTML, err = a.renderer.Render(ctx, a.page(topicURL)); err != nil {
			return nil, err
		}
	}

	now := a.now().UTC()
	resolver := normalize.NewResolver(now, now).In(normalize.Istanbul)

	var (
		records []domain.ContentRecord
		errs    []error
	)
	for _, p := range targetPages(lastPage(pagerHTML)) {
		pageURL := topicURL
		if p > 1 {
			pageURL += "?p=" + strconv.Itoa(p)
		}

		html, err := a.renderer.Render(ctx, a.page(pageURL))
		if err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("page %d: %w", p, err))
			continue
		}
		records = append(records, a.parseEntries(html, keyword, resolver)...)
	}
	return records, errors.Join(errs...)
}

// topicURL finds the topic the search landed on. direct is true when the search page
// itself is the topic page.
func (a *Adapter) topicURL(html string) (topic string, direct bool) {
	title := titlePattern.FindStringSubmatch(html)
	id := contentIDPattern.FindStringSubmatch(html)
	if title != nil && id != nil {
		return fmt.Sprintf("%s/%s--%s", a.cfg.BaseURL, title[1], id[1]), true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	doc.Find("ul.topic-list li a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.SplitN(s.AttrOr("href", ""), "?", 2)[0]
		if topicHrefPattern.MatchString(href) {
			topic = a.cfg.BaseURL + href
			return false
		}
		return true
	})
	return topic, false
}

func lastPage(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 1
	}
	last := 1
	doc.Find("a.last").Each(func(_ int, s *goquery.Selection) {
		if m := pageParamPattern.FindStringSubmatch(s.AttrOr("href", "")); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > last {
				last = n
			}
		}
	})
	return last
}

func targetPages(last int) []int {
	if last > 1 {
		return []int{last - 1, last}
	}
	return []int{1}
}
