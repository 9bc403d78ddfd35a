package resolve

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that identify the click, not the
// destination. They are dropped so the same landing page always yields
// the same expanded URL
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"_ga":          {},
}

// CleanURL lowercases the host, strips tracking parameters, and drops
// the fragment. URLs that do not parse pass through unchanged
func CleanURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if _, ok := trackingParams[k]; ok {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
