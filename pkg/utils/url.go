package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// ProfileURLFromHref rebuilds an absolute profile URL from the href of the
// navigation "home" link. The href is split on "/" and segments 1 and 2 are kept,
// so "/in/jane-doe/?trk=nav" becomes "<base>/in/jane-doe".
func ProfileURLFromHref(base, href string) (string, error) {
	parts := strings.Split(href, "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("unexpected profile href %q", href)
	}
	seg := strings.SplitN(parts[2], "?", 2)[0]
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), parts[1], seg), nil
}
