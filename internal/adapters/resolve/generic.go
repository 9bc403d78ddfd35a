package resolve

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	perr "scamwatch/internal/platform/errors"
)

const (
	genericTimeout = 10 * time.Second
	maxRedirects   = 10
	desktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Generic follows standard HTTP redirects. It tries a HEAD first and
// falls back to a GET when the origin rejects HEAD
type Generic struct {
	client *http.Client
}

// NewGeneric creates a Generic resolver. A nil base uses a fresh client
// with the default timeout
func NewGeneric(base *http.Client) *Generic {
	if base == nil {
		base = &http.Client{Timeout: genericTimeout}
	}
	base.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
	return &Generic{client: base}
}

// CanHandle always reports true; Generic is the chain's fallback
func (g *Generic) CanHandle(string) bool { return true }

// Resolve returns the URL the final response came from
func (g *Generic) Resolve(ctx context.Context, rawURL string) (string, error) {
	final, ok, err := g.attempt(ctx, http.MethodHead, rawURL)
	if err == nil && ok {
		return final, nil
	}
	final, ok, err = g.attempt(ctx, http.MethodGet, rawURL)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", perr.Resolvef("resolve %s: origin refused both HEAD and GET", rawURL)
	}
	return final, nil
}

func (g *Generic) attempt(ctx context.Context, method, rawURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", false, perr.Resolvef("resolve %s: bad request: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", desktopUA)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", false, wrapNetErr(rawURL, err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return resp.Request.URL.String(), ok, nil
}
