package normalize

import (
	"math"
	"strconv"
	"strings"
)

var countSuffixes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// ParseCount reads abbreviated counters such as "2.5K", "1.2M" or "1,234".
// Anything unreadable counts as zero.
func ParseCount(raw string) int64 {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}

	multiplier := 1.0
	if m, ok := countSuffixes[s[len(s)-1]]; ok {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	}
	s = strings.ReplaceAll(s, ",", "")

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0
	}
	return int64(math.Round(value * multiplier))
}
