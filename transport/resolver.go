package transport

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL is returned for URLs that cannot be parsed or lack a host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrUnsupportedScheme is returned when the resolved target is not http(s).
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// Endpoint is the outcome of resolving a protocol URL.
type Endpoint struct {
	// Target is the URL the request is POSTed to.
	Target string
	// Token is the token query parameter, empty when absent.
	Token string
}

// Resolver implements relay indirection. The zero value is ready to use.
type Resolver struct{}

// Resolve parses rawURL and computes the POST target and embedded token.
func (Resolver) Resolve(rawURL string) (Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	query := u.Query()
	ep := Endpoint{
		Target: rawURL,
		Token:  query.Get("token"),
	}

	if relay := query.Get("relay"); relay != "" {
		r, err := url.Parse(relay)
		if err != nil || r.Host == "" {
			return Endpoint{}, fmt.Errorf("%w: bad relay %q", ErrInvalidURL, relay)
		}
		if !httpScheme(r.Scheme) {
			return Endpoint{}, fmt.Errorf("%w: relay scheme %q", ErrUnsupportedScheme, r.Scheme)
		}
		ep.Target = strings.TrimRight(relay, "/") + u.EscapedPath()
		return ep, nil
	}

	if !httpScheme(u.Scheme) {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return ep, nil
}

func httpScheme(s string) bool {
	s = strings.ToLower(s)
	return s == "http" || s == "https"
}
