package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Unit string

const (
	Second Unit = "second"
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
	Week   Unit = "week"
	Month  Unit = "month"
	Year   Unit = "year"
)

// Istanbul is the fixed UTC+3 offset Turkish sources print local times in.
var Istanbul = time.FixedZone("TRT", 3*60*60)

var turkishLower = cases.Lower(language.Turkish)

// unitPrefixes is checked in order, so longer Turkish stems come before shorter ones.
var unitPrefixes = []struct {
	prefix string
	unit   Unit
}{
	{"saniye", Second}, {"sn", Second}, {"second", Second}, {"sec", Second},
	{"dakika", Minute}, {"dk", Minute}, {"minute", Minute}, {"min", Minute},
	{"saat", Hour}, {"hour", Hour}, {"hr", Hour},
	{"gün", Day}, {"gun", Day}, {"day", Day},
	{"hafta", Week}, {"week", Week},
	{"ay", Month}, {"month", Month},
	{"yıl", Year}, {"yil", Year}, {"year", Year},
}

var months = map[string]time.Month{
	"oca": time.January, "ocak": time.January,
	"şub": time.February, "sub": time.February, "şubat": time.February, "subat": time.February,
	"mar": time.March, "mart": time.March,
	"nis": time.April, "nisan": time.April,
	"may": time.May, "mayıs": time.May, "mayis": time.May,
	"haz": time.June, "haziran": time.June,
	"tem": time.July, "temmuz": time.July,
	"ağu": time.August, "agu": time.August, "ağustos": time.August, "agustos": time.August,
	"eyl": time.September, "eylül": time.September, "eylul": time.September,
	"eki": time.October, "ekim": time.October,
	"kas": time.November, "kasım": time.November, "kasim": time.November,
	"ara": time.December, "aralık": time.December, "aralik": time.December,

	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"march": time.March,
	"apr": time.April, "april": time.April,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// Layouts carrying their own zone, or treated as UTC when they have none.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon Jan 02 15:04:05 -0700 2006",
	time.RFC1123Z,
	time.RFC1123,
	"1/2/2006, 3:04 PM, -0700 MST",
	"1/2/2006, 3:04 PM",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Layouts printed in the source's local time.
var localLayouts = []string{
	"02.01.2006 15:04",
	"02.01.2006",
}

var (
	trRelative = regexp.MustCompile(`(?i)(\d+)\s+([\p{L}_]+)\s+(?:önce|once)`)
	enRelative = regexp.MustCompile(`(?i)\b(\d+|an?|one)\s+(seconds?|secs?|minutes?|mins?|hours?|hrs?|days?|weeks?|months?|years?)\s+ago\b`)
	dayMonth   = regexp.MustCompile(`(\d{1,2})\s+([\p{L}]{3,})\.?,?\s*(\d{4})?`)
)

var (
	todayWords     = []string{"bugün", "bugun", "today", "az önce", "az once", "şimdi", "simdi", "just now"}
	yesterdayWords = []string{"dün", "dun", "yesterday"}
)

// LookupUnit resolves a Turkish or English duration word ("saat", "hours", "dk").
func LookupUnit(token string) (Unit, bool) {
	token = strings.TrimSpace(token)
	for _, t := range []string{turkishLower.String(token), strings.ToLower(token)} {
		for _, u := range unitPrefixes {
			if strings.HasPrefix(t, u.prefix) {
				return u.unit, true
			}
		}
	}
	return "", false
}

// LookupMonth resolves a Turkish or English month name or abbreviation.
func LookupMonth(token string) (time.Month, bool) {
	token = strings.TrimSuffix(strings.TrimSpace(token), ".")
	if m, ok := months[turkishLower.String(token)]; ok {
		return m, true
	}
	m, ok := months[strings.ToLower(token)]
	return m, ok
}

// Ago moves base back by n units.
func Ago(base time.Time, unit Unit, n int) time.Time {
	switch unit {
	case Second:
		return base.Add(-time.Duration(n) * time.Second)
	case Minute:
		return base.Add(-time.Duration(n) * time.Minute)
	case Hour:
		return base.Add(-time.Duration(n) * time.Hour)
	case Day:
		return base.AddDate(0, 0, -n)
	case Week:
		return base.AddDate(0, 0, -7*n)
	case Month:
		return base.AddDate(0, -n, 0)
	case Year:
		return base.AddDate(-n, 0, 0)
	}
	return base
}

// BuildDate returns midnight UTC of the given day, rejecting impossible dates.
func BuildDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// FromUnix converts epoch seconds; zero and negative values are treated as absent.
func FromUnix(sec int64) (time.Time, bool) {
	if sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0).UTC(), true
}

// ParseAbsolute reads explicit dates. Zone-less values are taken as UTC; a missing
// year in "3 Eki" style dates is taken from base.
func ParseAbsolute(raw string, base time.Time) (time.Time, bool) {
	return ParseAbsoluteIn(raw, base, time.UTC)
}

// ParseAbsoluteIn is ParseAbsolute for sources printing "dd.MM.yyyy HH:mm" in loc.
func ParseAbsoluteIn(raw string, base time.Time, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), true
		}
	}

	m := dayMonth.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := LookupMonth(m[2])
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	year := base.UTC().Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	return BuildDate(year, month, day)
}

// ParseRelative resolves "3 saat önce", "2 days ago", "dün" and similar against base.
func ParseRelative(raw string, base time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	base = base.UTC()

	if m := trRelative.FindStringSubmatch(s); m != nil {
		if unit, ok := LookupUnit(m[2]); ok {
			n, _ := strconv.Atoi(m[1])
			return Ago(base, unit, n), true
		}
	}

	if m := enRelative.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			n = 1
		}
		if unit, ok := LookupUnit(m[2]); ok {
			return Ago(base, unit, n), true
		}
	}

	lower := turkishLower.String(s)
	for _, w := range yesterdayWords {
		if strings.HasPrefix(lower, w) {
			return base.AddDate(0, 0, -1), true
		}
	}
	for _, w := range todayWords {
		if strings.HasPrefix(lower, w) {
			return base, true
		}
	}

	return time.Time{}, false
}

// Resolver turns whatever date text a source emits into UTC. Relative phrases are
// resolved against base (the source's own generated-at time when known); anything
// unreadable becomes fallback.
type Resolver struct {
	base     time.Time
	fallback time.Time
	loc      *time.Location
}

func NewResolver(base, fallback time.Time) *Resolver {
	return &Resolver{base: base.UTC(), fallback: fallback.UTC(), loc: time.UTC}
}

// In returns a copy reading zone-less local layouts in loc.
func (r *Resolver) In(loc *time.Location) *Resolver {
	cp := *r
	cp.loc = loc
	return &cp
}

func (r *Resolver) Base() time.Time {
	return r.base
}

func (r *Resolver) Fallback() time.Time {
	return r.fallback
}

// Parse tries an absolute reading first, then a relative one.
func (r *Resolver) Parse(raw string) (time.Time, bool) {
	if t, ok := ParseAbsoluteIn(raw, r.base, r.loc); ok {
		return t, true
	}
	return ParseRelative(raw, r.base)
}

// Normalize never fails: unreadable input yields the fallback time.
func (r *Resolver) Normalize(raw string) time.Time {
	if t, ok := r.Parse(raw); ok {
		return t
	}
	return r.fallback
}

// First returns the first candidate that parses, or the fallback.
func (r *Resolver) First(candidates ...string) time.Time {
	for _, c := range candidates {
		if t, ok := r.Parse(c); ok {
			return t
		}
	}
	return r.fallback
}
