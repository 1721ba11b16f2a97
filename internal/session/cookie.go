package session

import (
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCookieName is the cookie that carries the session id
const DefaultCookieName = "EASY_SESSION_ID"

var (
	patternMu sync.Mutex
	patterns  = map[string]*regexp.Regexp{}
)

func cookiePattern(name string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	re, ok := patterns[name]
	if !ok {
		re = regexp.MustCompile(`(?:^|[;,]\s*)` + regexp.QuoteMeta(name) + `=([a-zA-Z0-9_-]*)`)
		patterns[name] = re
	}
	return re
}

// IDFromCookieHeader extracts the first value of cookie name from a raw
// Cookie header. Values are limited to letters, digits, '_' and '-'.
func IDFromCookieHeader(header, name string) (string, bool) {
	if header == "" {
		return "", false
	}
	m := cookiePattern(name).FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NewID generates a fresh session id: a random UUID without hyphens
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// Cookie builds the Set-Cookie value that hands id to the client
func Cookie(name, id string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	}
}
