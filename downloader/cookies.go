package downloader

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// CookieJar is a file-backed cookie store scoped to one link's processing.
// Resolvers append to the backing file while working through a hoster's
// pages; the transfer engine reads it back for the final request when the
// module requires it. The jar must never outlive its link: Remove runs on
// every exit path, success or failure.
type CookieJar struct {
	path string
}

// NewLinkJar creates a fresh jar file for one link, optionally seeded with
// the contents of a global Netscape-format cookie file.
func NewLinkJar(dir, seedFile string) (*CookieJar, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	file, err := os.CreateTemp(dir, "plowdown-cookies-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if seedFile != "" {
		seed, err := os.Open(seedFile)
		if err != nil {
			file.Close()
			os.Remove(file.Name())
			return nil, fmt.Errorf("failed to open cookie file %s: %w", seedFile, err)
		}
		_, err = io.Copy(file, seed)
		seed.Close()
		if err != nil {
			file.Close()
			os.Remove(file.Name())
			return nil, fmt.Errorf("failed to seed cookie jar: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to close cookie jar: %w", err)
	}

	return &CookieJar{path: file.Name()}, nil
}

// Path returns the jar's backing file path, handed to resolver modules.
func (j *CookieJar) Path() string {
	return j.path
}

// Cookies parses the jar's Netscape-format contents.
func (j *CookieJar) Cookies() ([]*http.Cookie, error) {
	file, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie jar: %w", err)
	}
	defer file.Close()

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cookie, err := parseNetscapeCookieLine(line)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie format at line %d: %w", lineNum, err)
		}
		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading cookie jar: %w", err)
	}

	return cookies, nil
}

// HeaderValue renders the jar as a Cookie request header value for a host.
// Cookies whose domain does not suffix-match the host are skipped.
func (j *CookieJar) HeaderValue(host string) (string, error) {
	cookies, err := j.Cookies()
	if err != nil {
		return "", err
	}

	var pairs []string
	for _, c := range cookies {
		if !domainMatches(c.Domain, host) {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}

// Append adds a cookie line to the jar in Netscape format.
func (j *CookieJar) Append(c *http.Cookie) error {
	file, err := os.OpenFile(j.path, os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open cookie jar: %w", err)
	}
	defer file.Close()

	secure := "FALSE"
	if c.Secure {
		secure = "TRUE"
	}
	expires := int64(0)
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}
	path := c.Path
	if path == "" {
		path = "/"
	}

	_, err = fmt.Fprintf(file, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
		c.Domain, path, secure, expires, c.Name, c.Value)
	return err
}

// Remove deletes the jar's backing file. Safe to call more than once.
func (j *CookieJar) Remove() error {
	err := os.Remove(j.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// parseNetscapeCookieLine parses a single line from Netscape cookie format
// Format: domain	flag	path	secure	expiration	name	value
func parseNetscapeCookieLine(line string) (*http.Cookie, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return nil, fmt.Errorf("expected 7 fields, got %d", len(fields))
	}

	domain := fields[0]
	path := fields[2]
	secure := fields[3] == "TRUE"
	expirationStr := fields[4]
	name := fields[5]
	value := fields[6]

	var expires time.Time
	if expirationStr != "0" {
		timestamp, err := strconv.ParseInt(expirationStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration timestamp: %w", err)
		}
		expires = time.Unix(timestamp, 0)
	}

	return &http.Cookie{
		Name:    name,
		Value:   value,
		Domain:  domain,
		Path:    path,
		Expires: expires,
		Secure:  secure,
	}, nil
}

// domainMatches implements the cookie domain suffix rule: an empty or exact
// domain matches, and a leading dot matches any subdomain.
func domainMatches(domain, host string) bool {
	if domain == "" {
		return true
	}
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
