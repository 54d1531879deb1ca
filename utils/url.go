package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"plowdown/internal"
)

// ValidateURL checks that the string parses as an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return internal.NewHosterError(internal.KindFatal, "URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return internal.NewHosterError(internal.KindFatal, fmt.Sprintf("invalid URL format: %v", err))
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return internal.NewHosterError(internal.KindFatal, "URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return internal.NewHosterError(internal.KindFatal, "URL has no host")
	}

	return nil
}

// EscapeURI percent-encodes characters that are unsafe inside a URI while
// leaving already-encoded sequences and reserved delimiters alone. Link-list
// files carry URLs the user typed, which may contain raw spaces or brackets.
func EscapeURI(raw string) string {
	const safe = "-_.~!*'();:@&=+$,/?%#[]"

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range []byte(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteByte(r)
		case strings.IndexByte(safe, r) >= 0:
			b.WriteByte(r)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", r))
		}
	}
	return b.String()
}

// FilenameFromURL derives a local filename from the path component of a URL.
// Used when the resolver did not suggest one. Falls back to the host name,
// then to a fixed name, so the engine always has something to write to.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "plowdown.out"
	}

	name := path.Base(u.Path)
	if name != "" && name != "." && name != "/" {
		if decoded, err := url.PathUnescape(name); err == nil {
			name = decoded
		}
		return TruncateFilename(name)
	}

	if u.Host != "" {
		return TruncateFilename(u.Host)
	}
	return "plowdown.out"
}

// HostOf returns the lowercased hostname of a URL, or "" if it cannot be
// parsed. Resolver dispatch matches on this.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
