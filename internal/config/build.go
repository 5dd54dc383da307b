package config

import (
	"log/slog"

	"github.com/ozgurerrdem/persona-watch/internal/apify"
	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/browser"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/ozgurerrdem/persona-watch/internal/source"
	"github.com/ozgurerrdem/persona-watch/internal/source/actors"
	"github.com/ozgurerrdem/persona-watch/internal/source/eksi"
	"github.com/ozgurerrdem/persona-watch/internal/source/filmot"
	"github.com/ozgurerrdem/persona-watch/internal/source/serpapi"
	"github.com/ozgurerrdem/persona-watch/internal/source/sikayetvar"
	"github.com/ozgurerrdem/persona-watch/internal/source/youtube"
)

// Deps overrides the shared collaborators adapters are built with. Nil fields
// are created from the catalog.
type Deps struct {
	HTTP     *httpx.Client
	Renderer browser.Renderer
}

func (c *Catalog) httpClient(userAgent string) *httpx.Client {
	ua := c.HTTP.UserAgent
	if ua == "" {
		ua = userAgent
	}
	return httpx.New(httpx.Config{
		Timeout:   c.HTTP.Timeout,
		UserAgent: ua,
		Retry: httpx.RetryConfig{
			MaxAttempts:  c.HTTP.Retry.MaxAttempts,
			InitialDelay: c.HTTP.Retry.InitialDelay,
			MaxDelay:     c.HTTP.Retry.MaxDelay,
		},
	})
}

func (c *Catalog) renderer(userAgent string) browser.Renderer {
	return browser.NewChrome(browser.Config{
		UserAgent:   userAgent,
		Headful:     c.Browser.Headful,
		ScrollPause: c.Browser.ScrollPause,
		ExecPath:    c.Browser.ExecPath,
	})
}

// BuildRegistry constructs every enabled adapter. A missing credential of an
// enabled adapter fails the whole build with *apperr.ConfigurationError.
func BuildRegistry(c *Catalog, s *Secrets, deps Deps) (*source.Registry, error) {
	if deps.HTTP == nil {
		deps.HTTP = c.httpClient(s.UserAgent)
	}
	scrapers := c.Adapters.Eksi.Enabled || c.Adapters.Sikayetvar.Enabled
	if deps.Renderer == nil && scrapers {
		deps.Renderer = c.renderer(s.UserAgent)
	}

	var adapters []source.Adapter
	a := c.Adapters

	if a.SerpAPI.Enabled {
		adapter, err := serpapi.New(serpapi.Config{
			APIKey:   s.SerpAPIKey,
			BaseURL:  a.SerpAPI.BaseURL,
			Engines:  a.SerpAPI.Engines,
			Language: a.SerpAPI.Language,
			Country:  a.SerpAPI.Country,
			Num:      a.SerpAPI.Num,
		}, deps.HTTP)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	if a.YouTube.Enabled {
		adapter, err := youtube.New(youtube.Config{
			APIKey:         s.YouTubeAPIKey,
			BaseURL:        a.YouTube.BaseURL,
			SkipStatistics: a.YouTube.SkipStatistics,
		}, deps.HTTP)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	if a.Filmot.Enabled {
		adapters = append(adapters, filmot.New(filmot.Config{BaseURL: a.Filmot.BaseURL, UserAgent: s.UserAgent}, deps.HTTP))
	}
	if a.Eksi.Enabled {
		adapters = append(adapters, eksi.New(eksi.Config{BaseURL: a.Eksi.BaseURL, Cookie: s.EksiCookie}, deps.Renderer))
	}
	if a.Sikayetvar.Enabled {
		adapters = append(adapters, sikayetvar.New(sikayetvar.Config{BaseURL: a.Sikayetvar.BaseURL, Scrolls: a.Sikayetvar.Scrolls}, deps.Renderer))
	}

	actorAdapters := []struct {
		name  string
		cfg   ActorConfig
		build func(actors.Config, *apify.Client, *jobpoll.Poller) source.Adapter
	}{
		{actors.XName, a.X, actors.NewX},
		{actors.InstagramName, a.Instagram, actors.NewInstagram},
		{actors.FacebookName, a.Facebook, actors.NewFacebook},
		{actors.TikTokName, a.TikTok, actors.NewTikTok},
	}

	var (
		client *apify.Client
		poller = jobpoll.NewPoller(
			jobpoll.WithInterval(c.Polling.Interval),
			jobpoll.WithMaxAttempts(c.Polling.MaxAttempts),
		)
	)
	for _, aa := range actorAdapters {
		if !aa.cfg.Enabled {
			continue
		}
		if client == nil {
			if s.ApifyToken == "" {
				return nil, apperr.NewConfiguration(aa.name, "APIFY_API_TOKEN")
			}
			var opts []apify.Option
			if c.ApifyBaseURL != "" {
				opts = append(opts, apify.WithBaseURL(c.ApifyBaseURL))
			}
			var err error
			if client, err = apify.NewClient(s.ApifyToken, deps.HTTP, opts...); err != nil {
				return nil, err
			}
		}
		adapters = append(adapters, aa.build(actors.Config{ActorID: aa.cfg.ActorID, Limit: aa.cfg.Limit}, client, poller))
	}

	registry, err := source.NewRegistry(adapters...)
	if err != nil {
		return nil, err
	}
	slog.Info("adapters registered", "count", registry.Len(), "names", registry.Names())
	return registry, nil
}
