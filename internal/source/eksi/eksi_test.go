package eksi

import (
	"context"
	"testing"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/browser"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://eksisozluk.com"

const topicPage = `<html><head><script>
dataLayer.push({'etitle': 'acme-corp', 'econtentid': '123'});
</script></head><body>
<div class="pager"><a href="?p=2">2</a><a href="?p=3" class="last">3</a></div>
</body></html>`

const pageTwo = `<ul id="entry-item-list">
<li id="entry-1" data-id="1001" data-favorite-count="7">
  <div class="content">acme is great</div>
  <a class="entry-date">10.01.2025 14:30 ~ 15:00</a>
  <a class="entry-author">yazar1</a>
</li>
<li id="entry-2" data-id="">
  <div class="content">missing id</div>
</li>
</ul>`

const pageThree = `<ul id="entry-item-list">
<li id="entry-3" data-id="1003">
  <div class="content">
    acme again
  </div>
  <a class="entry-date">unreadable</a>
</li>
<li id="entry-4" data-id="1004"><div class="content"></div></li>
</ul>`

func newTestAdapter(pages map[string]string) (*Adapter, *browser.Static) {
	renderer := browser.NewStatic(pages)
	a := New(Config{Cookie: "session=abc; pref=1"}, renderer)
	a.now = func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) }
	return a, renderer
}

func TestAdapter_Scan(t *testing.T) {
	// Arrange
	a, renderer := newTestAdapter(map[string]string{
		base + "/?q=acme+corp":      topicPage,
		base + "/acme-corp--123?p=2": pageTwo,
		base + "/acme-corp--123?p=3": pageThree,
	})

	// Act
	records, err := a.Scan(context.Background(), "acme corp")

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "yazar1", first.Title)
	assert.Equal(t, "yazar1", first.Publisher)
	assert.Equal(t, "acme is great", first.Body)
	assert.Equal(t, base+"/entry/1001", first.URL)
	assert.Equal(t, "Ekşi Sözlük", first.Platform)
	assert.Equal(t, time.Date(2025, 1, 10, 11, 30, 0, 0, time.UTC), first.PublishedAt)
	assert.Equal(t, int64(7), first.Likes)
	assert.Equal(t, normalize.Fingerprint("acme is great", base+"/entry/1001"), first.Fingerprint)

	second := records[1]
	assert.Equal(t, "anonim", second.Title)
	assert.Equal(t, "acme again", second.Body)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), second.PublishedAt)

	requests := renderer.Requests()
	require.Len(t, requests, 3)
	assert.Equal(t, []browser.Cookie{{Name: "session", Value: "abc"}, {Name: "pref", Value: "1"}}, requests[0].Cookies)
}

func TestAdapter_Scan_TopicListFallback(t *testing.T) {
	search := `<ul class="topic-list">
<li><a href="/basliklar/ara?q=acme">search more</a></li>
<li><a href="/acme-ltd--77?a=search">acme ltd</a></li>
</ul>`
	single := `<li id="entry-9" data-id="9"><div class="content">only page</div><a class="entry-author">x</a><a class="entry-date">09.01.2025</a></li>`

	a, _ := newTestAdapter(map[string]string{
		base + "/?q=acme":      search,
		base + "/acme-ltd--77": single,
	})

	records, err := a.Scan(context.Background(), "acme")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "only page", records[0].Body)
	assert.Equal(t, time.Date(2025, 1, 8, 21, 0, 0, 0, time.UTC), records[0].PublishedAt)
}

func TestAdapter_Scan_NoTopic(t *testing.T) {
	a, _ := newTestAdapter(map[string]string{base + "/?q=nobody": "<html><body>yok</body></html>"})

	records, err := a.Scan(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdapter_Scan_PageFailureKeepsOtherPage(t *testing.T) {
	a, _ := newTestAdapter(map[string]string{
		base + "/?q=acme+corp":       topicPage,
		base + "/acme-corp--123?p=3": pageThree,
	})

	records, err := a.Scan(context.Background(), "acme corp")

	assert.ErrorContains(t, err, "page 2")
	assert.Len(t, records, 1)
}

func TestTargetPages(t *testing.T) {
	assert.Equal(t, []int{1}, targetPages(1))
	assert.Equal(t, []int{4, 5}, targetPages(5))
}
