package eksi

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

// parseEntries maps every well-formed entry on a topic page; entries without id or text are skipped.
func (a *Adapter) parseEntries(html, keyword string, resolver *normalize.Resolver) []domain.ContentRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []domain.ContentRecord
	doc.Find(`li[id^="entry-"]`).Each(func(_ int, s *goquery.Selection) {
		r, ok := a.entry(s, keyword, resolver)
		if ok {
			records = append(records, r)
		}
	})
	return records
}

func (a *Adapter) entry(s *goquery.Selection, keyword string, resolver *normalize.Resolver) (domain.ContentRecord, bool) {
	id := strings.TrimSpace(s.AttrOr("data-id", ""))
	text := strings.TrimSpace(s.Find("div.content").First().Text())
	if id == "" || text == "" {
		return domain.ContentRecord{}, false
	}

	author := normalize.FirstNonEmpty(
		strings.TrimSpace(s.Find("a.entry-author").First().Text()),
		strings.TrimSpace(s.AttrOr("data-author", "")),
		anonymous,
	)

	r := domain.ContentRecord{
		Title:       author,
		Body:        text,
		URL:         a.cfg.BaseURL + "/entry/" + id,
		Publisher:   author,
		PublishedAt: resolver.Normalize(entryDate(s.Find("a.entry-date").First().Text())),
	}
	r.Likes = normalize.ParseCount(s.AttrOr("data-favorite-count", ""))
	r.Comments = normalize.ParseCount(s.AttrOr("data-comment-count", ""))

	return source.Stamp(a, keyword, r, text), true
}

// entryDate keeps the creation part of "02.01.2025 15:04 ~ 16:20".
func entryDate(raw string) string {
	created, _, _ := strings.Cut(raw, "~")
	return strings.TrimSpace(created)
}
