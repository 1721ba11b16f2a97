// Package params decodes key=value&key=value strings taken from a query
// string or a form-encoded request body.
//
// Parsing is lenient: segments that are not key=value with an alphanumeric
// key are dropped, and nothing is ever URL-decoded. A missing key is the only
// failure signal handlers get.
package params

import (
	"fmt"
	"regexp"
	"strings"

	"easyserver/internal/errors"
)

var segmentPattern = regexp.MustCompile(`^([a-zA-Z0-9]+)=([^&]*)$`)

// Params maps parameter names to raw values
type Params map[string]string

// Parse splits raw on '&' and keeps every segment of the form key=value.
// Later occurrences of a key overwrite earlier ones.
func Parse(raw string) Params {
	p := Params{}
	if raw == "" {
		return p
	}
	for _, segment := range strings.Split(raw, "&") {
		m := segmentPattern.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		p[m[1]] = m[2]
	}
	return p
}

// Get returns the value for key and whether it was present
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// GetDefault returns the value for key, or def when absent
func (p Params) GetDefault(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Require returns the value for key or a MissingParameter error
func (p Params) Require(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", missing(key)
	}
	return v, nil
}

// Must returns the value for key and panics with a MissingParameter error
// when it is absent. The dispatcher turns the panic into a 500 page.
func (p Params) Must(key string) string {
	v, ok := p[key]
	if !ok {
		panic(missing(key))
	}
	return v
}

func missing(key string) *errors.Error {
	return errors.New(errors.MissingParameter, fmt.Sprintf("parameter '%s' is required", key), nil)
}
