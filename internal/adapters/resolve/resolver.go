// Package resolve expands shortened and obfuscated links to their final
// destination. A chain of specialized resolvers handles hosts that need
// non-standard treatment; everything else falls through to a generic
// redirect follower.
package resolve

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	perr "scamwatch/internal/platform/errors"
)

// Resolver expands one URL to its destination
type Resolver interface {
	// CanHandle reports whether this resolver wants the URL
	CanHandle(rawURL string) bool
	// Resolve follows the URL to its final form
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Result is the outcome of expanding one URL. Err is set when every
// applicable resolver failed; Expanded then echoes the original
type Result struct {
	Original string
	Expanded string
	Err      error
}

// host returns the lowercased hostname without port, or "" when the
// URL does not parse
func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// validate reports whether rawURL is an absolute http(s) URL
func validate(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// wrapNetErr classifies a transport failure as a timeout or a generic
// resolution error
func wrapNetErr(rawURL string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return perr.Timeoutf("resolve %s: %v", rawURL, err)
	}
	return perr.Resolvef("resolve %s: %v", rawURL, err)
}
