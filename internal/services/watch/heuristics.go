package watch

import (
	"strings"
)

// scamServerKeywords mark guild names posing as official support desks.
// Real project guilds never hand out support through invites
var scamServerKeywords = []string{
	"support", "tickets", "support-tickets", "support server",
	"ticket support", "helpdesk center", "create ticket", "helpdesk",
	"help desk", "help center", "support ticket", "ticket tool",
	"ticket", "server support", "customer support", "technical support",
	"help-center", "help", "help-centre", "resolution",
}

// isScamServerName reports whether a guild name matches the fake
// support-desk pattern
func isScamServerName(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, kw := range scamServerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isPlatformURL reports whether the link points at the chat platform
func isPlatformURL(rawURL string) bool {
	h := hostOf(rawURL)
	return strings.HasSuffix(h, "discord.com") || strings.HasSuffix(h, "discord.gg")
}

// hasMultipleLines reports whether text has more than one non-blank line
func hasMultipleLines(text string) bool {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
			if n > 1 {
				return true
			}
		}
	}
	return false
}

// combineLines joins all lines into one, trimming each. Used to rejoin
// links split across lines
func combineLines(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}
