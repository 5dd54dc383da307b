// Package config loads the adapter catalog (YAML) and the credentials (env) and
// builds the adapter registry from them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/source/serpapi"
	"gopkg.in/yaml.v3"
)

type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Retry     struct {
		MaxAttempts  int           `yaml:"max_attempts"`
		InitialDelay time.Duration `yaml:"initial_delay"`
		MaxDelay     time.Duration `yaml:"max_delay"`
	} `yaml:"retry"`
}

type PollingConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type BrowserConfig struct {
	Headful     bool          `yaml:"headful"`
	ScrollPause time.Duration `yaml:"scroll_pause"`
	ExecPath    string        `yaml:"exec_path"`
}

type SerpAPIConfig struct {
	Enabled  bool     `yaml:"enabled"`
	BaseURL  string   `yaml:"base_url"`
	Engines  []string `yaml:"engines"`
	Language string   `yaml:"language"`
	Country  string   `yaml:"country"`
	Num      int      `yaml:"num"`
}

type YouTubeConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	SkipStatistics bool   `yaml:"skip_statistics"`
}

type ScrapeConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Scrolls int    `yaml:"scrolls"`
}

type ActorConfig struct {
	Enabled bool   `yaml:"enabled"`
	ActorID string `yaml:"actor_id"`
	Limit   int    `yaml:"limit"`
}

type AdaptersConfig struct {
	SerpAPI    SerpAPIConfig `yaml:"serpapi"`
	YouTube    YouTubeConfig `yaml:"youtube"`
	Filmot     ScrapeConfig  `yaml:"filmot"`
	Eksi       ScrapeConfig  `yaml:"eksi"`
	Sikayetvar ScrapeConfig  `yaml:"sikayetvar"`
	X          ActorConfig   `yaml:"x"`
	Instagram  ActorConfig   `yaml:"instagram"`
	Facebook   ActorConfig   `yaml:"facebook"`
	TikTok     ActorConfig   `yaml:"tiktok"`
}

// Catalog is the non-secret part of the configuration: which adapters run and how.
type Catalog struct {
	HTTP         HTTPConfig     `yaml:"http"`
	Polling      PollingConfig  `yaml:"polling"`
	Browser      BrowserConfig  `yaml:"browser"`
	ApifyBaseURL string         `yaml:"apify_base_url"`
	Adapters     AdaptersConfig `yaml:"adapters"`
}

// DefaultCatalog enables every adapter with its built-in defaults.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Adapters: AdaptersConfig{
			SerpAPI:    SerpAPIConfig{Enabled: true},
			YouTube:    YouTubeConfig{Enabled: true},
			Filmot:     ScrapeConfig{Enabled: true},
			Eksi:       ScrapeConfig{Enabled: true},
			Sikayetvar: ScrapeConfig{Enabled: true},
			X:          ActorConfig{Enabled: true},
			Instagram:  ActorConfig{Enabled: true},
			Facebook:   ActorConfig{Enabled: true},
			TikTok:     ActorConfig{Enabled: true},
		},
	}
}

// LoadCatalog reads a catalog file. An empty path returns DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML. Unknown keys are rejected so
// that a typo does not silently disable a setting.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var knownEngines = map[string]bool{
	serpapi.EngineGoogle: true,
	serpapi.EngineNews:   true,
	serpapi.EngineVideos: true,
}

func (c *Catalog) validate() error {
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.HTTP.Retry.MaxAttempts < 0 {
		return fmt.Errorf("http.retry.max_attempts must not be negative")
	}
	if c.Polling.Interval < 0 {
		return fmt.Errorf("polling.interval must not be negative")
	}
	if c.Polling.MaxAttempts < 0 {
		return fmt.Errorf("polling.max_attempts must not be negative")
	}
	for _, e := range c.Adapters.SerpAPI.Engines {
		if !knownEngines[e] {
			return fmt.Errorf("adapters.serpapi.engines: unknown engine %q", e)
		}
	}
	if c.Adapters.Sikayetvar.Scrolls < 0 {
		return fmt.Errorf("adapters.sikayetvar.scrolls must not be negative")
	}

	urls := map[string]string{
		"apify_base_url":               c.ApifyBaseURL,
		"adapters.serpapi.base_url":    c.Adapters.SerpAPI.BaseURL,
		"adapters.youtube.base_url":    c.Adapters.YouTube.BaseURL,
		"adapters.filmot.base_url":     c.Adapters.Filmot.BaseURL,
		"adapters.eksi.base_url":       c.Adapters.Eksi.BaseURL,
		"adapters.sikayetvar.base_url": c.Adapters.Sikayetvar.BaseURL,
	}
	for key, raw := range urls {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: %q is not an absolute URL", key, raw)
		}
	}

	for name, a := range map[string]ActorConfig{
		"x": c.Adapters.X, "instagram": c.Adapters.Instagram,
		"facebook": c.Adapters.Facebook, "tiktok": c.Adapters.TikTok,
	} {
		if a.Limit < 0 {
			return fmt.Errorf("adapters.%s.limit must not be negative", name)
		}
	}
	return nil
}
