package resolve

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"

	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
)

const shortlinkRetries = 3

// t.co answers with an HTML stub instead of a redirect when it does not
// like the client, so the target is scraped out of the body
var reBodyURL = regexp.MustCompile(`(https?://[^\s]+)"`)

// Shortlink resolves t.co links. The redirect is not followed; the
// target is read from either the Location header or the HTML stub.
// Transient failures are retried up to three times
type Shortlink struct {
	client *http.Client
	log    logger.Logger
}

// NewShortlink creates a Shortlink resolver. A nil base uses a fresh
// client with the default timeout
func NewShortlink(base *http.Client) *Shortlink {
	if base == nil {
		base = &http.Client{Timeout: genericTimeout}
	}
	base.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Shortlink{
		client: base,
		log:    *logger.Named("resolve"),
	}
}

// CanHandle matches the t.co host exactly
func (s *Shortlink) CanHandle(rawURL string) bool {
	return host(rawURL) == "t.co"
}

// Resolve fetches the shortlink page and extracts the target URL
func (s *Shortlink) Resolve(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < shortlinkRetries; attempt++ {
		target, err := s.fetch(ctx, rawURL)
		if err == nil {
			return target, nil
		}
		lastErr = err
		s.log.Debug().Err(err).Int("attempt", attempt+1).Str("url", rawURL).Msg("shortlink attempt failed")
	}
	return "", perr.Resolvef("resolve %s: %d attempts failed: %v", rawURL, shortlinkRetries, lastErr)
}

func (s *Shortlink) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", perr.Resolvef("bad request: %v", err)
	}
	req.Header.Set("User-Agent", desktopUA)

	resp, err := s.client.Do(req)
	if err != nil {
		var ne net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
			return "", perr.Timeoutf("timeout: %v", err)
		default:
			return "", perr.Resolvef("network: %v", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", perr.Resolvef("http status %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		return loc, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", perr.Resolvef("read body: %v", err)
	}
	if m := reBodyURL.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", perr.Resolvef("no target in response")
}
