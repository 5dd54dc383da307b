package browser

import (
	"context"
	"fmt"
	"sync"
)

// Static serves canned HTML keyed by URL; tests and offline runs use it in place of Chrome.
type Static struct {
	mu    sync.Mutex
	pages map[string]string
	seen  []Page
}

func NewStatic(pages map[string]string) *Static {
	return &Static{pages: pages}
}

func (s *Static) Render(ctx context.Context, page Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, page)

	html, ok := s.pages[page.URL]
	if !ok {
		return "", fmt.Errorf("no page for %s", page.URL)
	}
	return html, nil
}

// Requests returns the pages rendered so far.
func (s *Static) Requests() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Page(nil), s.seen...)
}
