package urlnorm

import "regexp"

var reMentions = regexp.MustCompile(`<@!?\d+>|@everyone|@here`)

// extraction patterns run in order; matches are cleaned and deduped by
// first appearance. The union is deliberately loose, Clean does the
// filtering
var extractPatterns = []*regexp.Regexp{
	// URLs with encoded @ symbols and unusual prefixes
	regexp.MustCompile(`(?i)https?:/?/?(?:%40|@@?|!@!|%0%40|%0%400000|/%40%20@|%20@)?[^\s()<>]+`),

	// platform-specific invite shapes
	regexp.MustCompile(`(?i)(?:desk)?discord\.(?:com|gg|net)/invite\\?/?[a-zA-Z0-9]+`),
	regexp.MustCompile(`(?i)[a-zA-Z0-9]+discord(?:app)?\.(?:com|gg|net)\S*`),

	// URLs in angle brackets (with optional asterisks)
	regexp.MustCompile(`(?i)\*?\*?<(https?:[^>]+)>\*?\*?`),

	// plain URLs with potential trailing junk
	regexp.MustCompile(`(?i)https?://[^\s)>]+`),
	regexp.MustCompile(`(?i)(?:discord\.(?:com|gg)|discordapp\.com)/invite\??[a-zA-Z0-9]+`),

	// markdown links; the target is the second group
	regexp.MustCompile(`(?i)\[([^\]]+)\]\(([^)]+)\)`),

	// bare domain shapes
	regexp.MustCompile(`(?i)\b(?:www\.|\w+\.(?:com|org|net|edu|gov|io|gg|me|t\.co))\S+`),
}

// Extract pulls URL candidates out of message text, canonicalizes each via
// Clean, and returns them deduped in order of first appearance
func Extract(message string) []string {
	// user mentions and mass pings are noise, never URLs
	message = reMentions.ReplaceAllString(message, "")

	var out []string
	seen := map[string]struct{}{}
	for _, re := range extractPatterns {
		for _, m := range re.FindAllStringSubmatch(message, -1) {
			raw := m[0]
			// markdown links carry the target in the second group
			if len(m) == 3 {
				raw = m[2]
			}
			cleaned := Clean(raw)
			if cleaned == "" {
				continue
			}
			if _, dup := seen[cleaned]; dup {
				continue
			}
			seen[cleaned] = struct{}{}
			out = append(out, cleaned)
		}
	}
	return out
}
