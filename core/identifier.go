package core

import (
	"net/url"
	"strings"
)

// Identifier is a user supplied OpenID identifier that passed syntax checks.
// It names the provider the relying party should discover.
type Identifier struct {
	raw        string
	normalized string
}

// Raw returns the identifier as typed by the user.
func (i Identifier) Raw() string { return i.raw }

// String returns the normalized identifier URL.
func (i Identifier) String() string { return i.normalized }

// xriPrefixes are global context symbols of XRI identifiers. They cannot be
// discovered over HTTP so they are rejected.
var xriPrefixes = []string{"=", "@", "+", "$", "!", "(", "xri://"}

// ParseIdentifier validates and normalizes a user supplied identifier.
//
// A missing scheme defaults to https. Only http and https URLs with a host
// are accepted. The fragment is dropped and a trailing slash is trimmed.
func ParseIdentifier(raw string) (Identifier, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Identifier{}, ErrInvalidIdentifier
	}

	lower := strings.ToLower(value)
	for _, prefix := range xriPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return Identifier{}, ErrInvalidIdentifier
		}
	}

	if !hasScheme(value) {
		value = "https://" + value
	}

	u, err := url.Parse(value)
	if err != nil {
		return Identifier{}, ErrInvalidIdentifier
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return Identifier{}, ErrInvalidIdentifier
	}
	if u.Hostname() == "" || u.User != nil {
		return Identifier{}, ErrInvalidIdentifier
	}
	if strings.ContainsAny(u.Host, " \t") {
		return Identifier{}, ErrInvalidIdentifier
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""

	return Identifier{raw: raw, normalized: u.String()}, nil
}

// hasScheme reports whether value starts with a scheme, that is a "://"
// before any path, query or fragment.
func hasScheme(value string) bool {
	i := strings.Index(value, "://")
	return i > 0 && !strings.ContainsAny(value[:i], "/?#")
}
