package serpapi

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/normalize"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// item is the union of fields used across organic, news and video results.
type item struct {
	Title       string          `json:"title"`
	Question    string          `json:"question"`
	Snippet     string          `json:"snippet"`
	Link        string          `json:"link"`
	Date        json.RawMessage `json:"date"`
	Source      json.RawMessage `json:"source"`
	Author      json.RawMessage `json:"author"`
	Channel     string          `json:"channel"`
	RichSnippet *struct {
		Top *struct {
			DetectedExtensions map[string]json.RawMessage `json:"detected_extensions"`
			Extensions         []string                   `json:"extensions"`
		} `json:"top"`
	} `json:"rich_snippet"`
}

func (it item) date() string {
	return stringOf(it.Date)
}

func (it item) detected() (map[string]json.RawMessage, []string) {
	if it.RichSnippet == nil || it.RichSnippet.Top == nil {
		return nil, nil
	}
	return it.RichSnippet.Top.DetectedExtensions, it.RichSnippet.Top.Extensions
}

// stringOf returns raw as a string when it is a JSON string or number.
func stringOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// nameOf reads publisher fields that are either a plain string or an object with a name.
func nameOf(raw json.RawMessage) string {
	if s := stringOf(raw); s != "" {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &obj) == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}

func publishedAt(engine string, it item, resolver *normalize.Resolver) time.Time {
	if engine == EngineVideos {
		if t, ok := videoDate(it, resolver.Base()); ok {
			return t
		}
	}
	return resolver.Normalize(it.date())
}

// videoDate reads google_videos detected extensions: an explicit date, an
// "<unit>_önce" counter, or a "<month>: <day>" pair with the year taken from the
// free-text extensions.
func videoDate(it item, base time.Time) (time.Time, bool) {
	detected, extensions := it.detected()

	if t, ok := normalize.ParseAbsolute(stringOf(detected["date"]), base); ok {
		return t, true
	}

	for key, raw := range detected {
		unitToken, ok := agoUnit(key)
		if !ok {
			continue
		}
		unit, ok := normalize.LookupUnit(unitToken)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(stringOf(raw)); err == nil {
			return normalize.Ago(base, unit, n), true
		}
	}

	for key, raw := range detected {
		month, ok := normalize.LookupMonth(key)
		if !ok {
			continue
		}
		day, err := strconv.Atoi(stringOf(raw))
		if err != nil || day < 1 || day > 31 {
			continue
		}
		if t, ok := normalize.BuildDate(yearFrom(extensions, base.Year()), month, day); ok {
			return t, true
		}
	}

	for _, ext := range extensions {
		if t, ok := normalize.ParseAbsolute(ext, base); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func agoUnit(key string) (string, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, suffix := range []string{"_önce", "_once"} {
		if unit, ok := strings.CutSuffix(key, suffix); ok {
			return unit, true
		}
	}
	return "", false
}

func yearFrom(extensions []string, fallback int) int {
	for _, ext := range extensions {
		if y := yearPattern.FindString(ext); y != "" {
			if year, err := strconv.Atoi(y); err == nil {
				return year
			}
		}
	}
	return fallback
}
