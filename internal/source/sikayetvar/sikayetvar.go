// Package sikayetvar scrapes public complaints about a brand from sikayetvar.com.
package sikayetvar

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ozgurerrdem/persona-watch/internal/browser"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const (
	Name           = "sikayetvar"
	DefaultBaseURL = "https://www.sikayetvar.com"
	DefaultScrolls = 1
	titlePrefix    = "Şikayet Var Kullanıcısı"
)

type Config struct {
	BaseURL string
	Scrolls int
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
	if cfg.Scrolls <= 0 {
		cfg.Scrolls = DefaultScrolls
	}
	return &Adapter{cfg: cfg, renderer: renderer, now: time.Now}
}

func (a *Adapter) Name() string     { return Name }
func (a *Adapter) Platform() string { return "Şikayetvar" }

func (a *Adapter) Scan(ctx context.Context, keyword string) ([]domain.ContentRecord, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, nil
	}

	pageURL := a.cfg.BaseURL + "/" + url.PathEscape(normalize.JoinWords(keyword, "-"))
	html, err := a.renderer.Render(ctx, browser.Page{
		URL:          pageURL,
		WaitSelector: "body",
		Scrolls:      a.cfg.Scrolls,
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	now := a.now().UTC()
	resolver := normalize.NewResolver(now, now).In(normalize.Istanbul)

	var records []domain.ContentRecord
	doc.Find("article.card-v2").Each(func(_ int, s *goquery.Selection) {
		if r, ok := a.complaint(s, keyword, resolver); ok {
			records = append(records, r)
		}
	})
	return records, nil
}

// complaint maps one card. Cards without text or a decodable link are skipped.
func (a *Adapter) complaint(s *goquery.Selection, keyword string, resolver *normalize.Resolver) (domain.ContentRecord, bool) {
	desc := s.Find("p.complaint-description").First()
	text := strings.TrimSpace(desc.Text())
	if text == "" {
		return domain.ContentRecord{}, false
	}

	path, ok := decodePath(desc.AttrOr("data-url", ""))
	if !ok {
		return domain.ContentRecord{}, false
	}

	user := s.Find("span.username").First()
	name := normalize.FirstNonEmpty(strings.TrimSpace(user.AttrOr("title", "")), strings.TrimSpace(user.Text()))
	title := titlePrefix
	if name != "" {
		title += ": " + name
	}

	when := s.Find("time").First()
	r := domain.ContentRecord{
		Title:       title,
		Body:        text,
		URL:         a.cfg.BaseURL + path,
		Publisher:   name,
		PublishedAt: resolver.First(when.AttrOr("datetime", ""), when.AttrOr("title", ""), when.Text()),
	}
	r.Views = normalize.ParseCount(s.Find(".js-view-count, .view-count").First().Text())

	return source.Stamp(a, keyword, r, text), true
}

func decodePath(encoded string) (string, bool) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	path := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	return path, true
}
