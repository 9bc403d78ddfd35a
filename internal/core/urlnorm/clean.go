// Package urlnorm extracts and canonicalizes URLs that arrive mangled by
// chat formatting, encoding tricks, and deliberate obfuscation
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	reMarkdownChars = regexp.MustCompile("[`*~]")
	// stacked schemes like https://https://host; applied in a loop since
	// RE2 has no lookahead
	reStackedScheme = regexp.MustCompile(`^(https?:/+)(https?://)`)
	// every encoded or doubled @ variant seen in the wild; order matters,
	// alternatives are tried left to right
	reEncodedAt    = regexp.MustCompile(`(?:%40|@@?|!@!|%0%40|%0%400000|/%40%20@|%20@)`)
	reTrailingDot  = regexp.MustCompile(`\.>?$`)
	reLeadSlashes  = regexp.MustCompile(`^/{2,}`)
	reDupSlashes   = regexp.MustCompile(`([^:])/{2,}`)
	reURLHead      = regexp.MustCompile(`^https?://\S+`)
	rePrefixedHost = regexp.MustCompile(`(?i)[a-zA-Z0-9]+discord(?:app)?\.(?:com|gg|net)`)
	reInvitePath   = regexp.MustCompile(`(?:discord\.(?:com|gg)|discordapp\.com)/invite\??([a-zA-Z0-9]+)`)
	reColonDiscord = regexp.MustCompile(`:discord\.`)
	reBackslashes  = regexp.MustCompile(`\\+`)
	reCredentials  = regexp.MustCompile(`https?://[^@]+@`)
	reHostPrefix   = regexp.MustCompile(`(?i)^[a-zA-Z0-9]+discord\.`)
	rePathSlashes  = regexp.MustCompile(`/{2,}`)
	rePathDots     = regexp.MustCompile(`\.+$`)
	reDoubleHTTPS  = regexp.MustCompile(`^https://+(https?://)`)
)

// Clean canonicalizes a single URL candidate. It returns "" when the input
// cannot be salvaged; it never fails
func Clean(raw string) string {
	u := raw
	if strings.TrimSpace(u) == "" {
		return ""
	}

	// remove chat markdown and wrapping punctuation
	u = reMarkdownChars.ReplaceAllString(u, "")
	u = strings.Trim(u, "[]()<>\"' \t")

	// peel stacked schemes one layer at a time
	for {
		next := reStackedScheme.ReplaceAllString(u, "$2")
		if next == u {
			break
		}
		u = next
	}

	// normalize encoded @ variants, trailing dots, duplicate slashes
	u = reEncodedAt.ReplaceAllString(u, "@")
	u = reTrailingDot.ReplaceAllString(u, "")
	u = reLeadSlashes.ReplaceAllString(u, "/")
	u = reDupSlashes.ReplaceAllString(u, "$1/")

	// trim anything after the first whitespace-delimited URL
	if m := reURLHead.FindString(u); m != "" {
		u = m
	}

	// words glued onto the platform domain collapse to the real host
	u = rePrefixedHost.ReplaceAllString(u, "discord.com")

	// invite links canonicalize straight to the short form
	if m := reInvitePath.FindStringSubmatch(u); m != nil {
		return "https://discord.gg/" + m[1]
	}

	u = reColonDiscord.ReplaceAllString(u, "discord.")
	u = reBackslashes.ReplaceAllString(u, "/")

	// percent-decode before parsing; invalid escapes keep the raw form
	if dec, err := url.PathUnescape(u); err == nil {
		u = dec
	}

	// strip credentials ahead of the host
	u = reCredentials.ReplaceAllString(u, "https://")

	// force a scheme
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + strings.TrimLeft(u, "/:")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}

	host := parsed.Host
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	host = reHostPrefix.ReplaceAllString(host, "discord.")

	path := rePathSlashes.ReplaceAllString(parsed.Path, "/")
	path = rePathDots.ReplaceAllString(path, "")

	out := "https://" + host + path
	out = strings.TrimSuffix(out, "/")

	// a second stacked scheme can appear after reconstruction
	out = reDoubleHTTPS.ReplaceAllString(out, "$1")
	out = strings.Replace(out, "https://https:", "https://", 1)

	if out == "https://" {
		return ""
	}
	return out
}
