package filmot

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
)

// card is the metadata Filmot renders for each video in grid view.
type card struct {
	Title   string
	Channel string
	Date    string
	Views   int64
	Likes   int64
}

func parseCards(page string) (map[string]card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	cards := make(map[string]card)
	doc.Find(`div[id^="vcard"]`).Each(func(_ int, s *goquery.Selection) {
		vid := videoID(s)
		if vid == "" {
			return
		}

		c := card{
			Title:   strings.TrimSpace(s.Find(`div.d-inline[data-toggle="tooltip"]`).First().AttrOr("title", "")),
			Channel: strings.TrimSpace(s.Find(`a[href^="/channel/"]`).First().Text()),
		}
		s.Find("span.badge").Each(func(_ int, badge *goquery.Selection) {
			text := strings.TrimSpace(badge.Text())
			switch {
			case badge.Find("i.fa-eye").Length() > 0:
				c.Views = normalize.ParseCount(text)
			case badge.Find("i.fa-thumbs-up").Length() > 0:
				c.Likes = normalize.ParseCount(text)
			case badge.Find("i").Length() == 0 && c.Date == "":
				c.Date = text
			}
		})
		cards[vid] = c
	})
	return cards, nil
}

func videoID(s *goquery.Selection) string {
	var vid string
	s.Find(`a[href*="youtube.com/watch"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		u, err := url.Parse(a.AttrOr("href", ""))
		if err != nil {
			return true
		}
		vid = u.Query().Get("v")
		return vid == ""
	})
	return vid
}
