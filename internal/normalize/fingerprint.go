// Package normalize holds the stateless helpers every adapter shares: URL
// canonicalization, content fingerprints, date resolution and counter parsing.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// hostPrefixes are dropped from the host so mobile and www variants collapse to one URL.
var hostPrefixes = []string{"www.", "m."}

// NormalizeURL rewrites a URL for fingerprinting only: https scheme, lower-case host
// without default port or www./m. prefix, no trailing slash. Input without a scheme
// is read as https. Unparseable input is returned trimmed so that it still hashes
// deterministically.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.TrimRight(rawURL, "/")
	}

	originalScheme := strings.ToLower(parsed.Scheme)
	parsed.Scheme = "https"
	parsed.Host = normalizeHost(parsed, originalScheme)

	return strings.TrimRight(parsed.String(), "/")
}

func normalizeHost(u *url.URL, originalScheme string) string {
	hostname := strings.ToLower(u.Hostname())
	for stripped := true; stripped; {
		stripped = false
		for _, prefix := range hostPrefixes {
			if strings.HasPrefix(hostname, prefix) && len(hostname) > len(prefix) {
				hostname = hostname[len(prefix):]
				stripped = true
			}
		}
	}

	port := u.Port()
	if port == "" {
		return hostname
	}
	for _, scheme := range []string{originalScheme, "https"} {
		if defaultPort, ok := defaultPorts[scheme]; ok && port == defaultPort {
			return hostname
		}
	}

	return hostname + ":" + port
}

// Fingerprint is the dedup key of a record: MD5 over the lower-cased, trimmed text
// followed by the normalized URL, hex encoded.
func Fingerprint(text, rawURL string) string {
	input := strings.ToLower(strings.TrimSpace(text)) + NormalizeURL(rawURL)
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// CanonicalFingerprint folds hex case so fingerprints written by older uppercase
// encoders compare equal to ours.
func CanonicalFingerprint(fp string) string {
	return strings.ToLower(strings.TrimSpace(fp))
}
