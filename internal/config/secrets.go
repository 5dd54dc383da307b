package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Secrets are the credentials and deployment settings read from the environment.
type Secrets struct {
	SerpAPIKey    string
	YouTubeAPIKey string
	ApifyToken    string
	EksiCookie    string
	UserAgent     string
	ScanTimeout   time.Duration
}

func LoadSecrets() (*Secrets, error) {
	s := &Secrets{
		SerpAPIKey:    strings.TrimSpace(os.Getenv("SERPAPI_API_KEY")),
		YouTubeAPIKey: strings.TrimSpace(os.Getenv("YOUTUBE_API_KEY")),
		ApifyToken:    strings.TrimSpace(os.Getenv("APIFY_API_TOKEN")),
		EksiCookie:    os.Getenv("EKSI_COOKIE"),
		UserAgent:     os.Getenv("BROWSER_USER_AGENT"),
	}

	if raw := strings.TrimSpace(os.Getenv("SCAN_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid SCAN_TIMEOUT %q: expected a duration like 5m", raw)
		}
		s.ScanTimeout = d
	}
	return s, nil
}
