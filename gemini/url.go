// Package gemini implements the Gemini protocol: URL resolution, the
// single request/response exchange over TLS, and status classification.
package gemini

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// DefaultPort is the well-known Gemini port.
const DefaultPort = 1965

// URL is a parsed Gemini target. The path is stored without a leading
// slash; the port defaults to 1965 when absent or non-numeric.
type URL struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string
}

// Context is the host and path of the currently displayed page, used to
// resolve relative references. The path carries no leading slash.
type Context struct {
	Host string
	Path string
}

// String renders the URL in request form: scheme://host[:port]/path[?query].
// The port segment is omitted when it equals the default.
func (u URL) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString("://")
	sb.WriteString(u.Host)
	if u.Port != DefaultPort {
		fmt.Fprintf(&sb, ":%d", u.Port)
	}
	sb.WriteByte('/')
	sb.WriteString(u.Path)
	if u.Query != "" {
		sb.WriteByte('?')
		sb.WriteString(u.Query)
	}
	return sb.String()
}

// Resolve parses a raw URL string, resolving relative references against
// ctx when one is given. It is a pure string transformation: resolving an
// already-absolute URL yields the same result under any context.
func Resolve(raw string, ctx *Context) URL {
	scheme := ""
	rest := raw

	if i := strings.Index(raw, "://"); i >= 0 {
		scheme = raw[:i]
		rest = raw[i+3:]
	} else if ctx != nil {
		u := URL{Scheme: "gemini", Host: ctx.Host, Port: DefaultPort}
		target := rest
		if q := strings.IndexByte(target, '?'); q >= 0 {
			u.Query = target[q+1:]
			target = target[:q]
		}
		if strings.HasPrefix(target, "/") {
			u.Path = strings.TrimPrefix(target, "/")
		} else {
			u.Path = contextDir(ctx.Path) + target
		}
		return u
	}

	if scheme == "" {
		scheme = "gemini"
	}

	query := ""
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		query = rest[q+1:]
		rest = rest[:q]
	}

	authority := rest
	path := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		authority = rest[:i]
		path = rest[i+1:]
	}

	host, port := splitAuthority(authority)

	return URL{Scheme: scheme, Host: host, Port: port, Path: path, Query: query}
}

// contextDir returns the directory of a context path: everything up to
// and including the final slash, or empty when the path has none.
func contextDir(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i+1]
	}
	return ""
}

// splitAuthority extracts host and port from a URL authority. A leading
// user@ segment is recognized and discarded. The split is on the last
// colon; a non-numeric port is treated as absent.
func splitAuthority(authority string) (string, int) {
	if i := strings.IndexByte(authority, '@'); i >= 0 {
		authority = authority[i+1:]
	}

	host := authority
	port := DefaultPort
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		if p, ok := parsePort(authority[i+1:]); ok {
			host = authority[:i]
			port = p
		}
	}

	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	return host, port
}

// parsePort accepts digits-only port strings in 0-65535.
func parsePort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 65535 {
			return 0, false
		}
	}
	return n, true
}

// unreserved bytes pass through percent-encoding unescaped.
func unreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	case b == '.' || b == '~' || b == '_' || b == '-':
		return true
	}
	return false
}

const upperhex = "0123456789ABCDEF"

// EncodeQuery percent-encodes user input for use as a URL query. Bytes
// outside [A-Za-z0-9.~_-] become %XX with upper-case hex digits.
func EncodeQuery(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if unreserved(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[b>>4])
		sb.WriteByte(upperhex[b&0x0F])
	}
	return sb.String()
}
