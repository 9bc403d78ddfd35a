// Package signature extracts structural fingerprints from chat messages
// and scores them against a labeled corpus. A fingerprint records the
// cheap signals (money talk, off-platform contact pushes, urgency
// wording, linked hosts) that survive the paraphrasing scammers use to
// dodge exact-match filters.
package signature

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// monetary and contact patterns run on the ORIGINAL text so that
	// currency symbols stripped by preprocessing still count
	reMonetary = regexp.MustCompile(`(?i)(?:[$€£¥]|\d+k?\s*(?:usd|eur|gbp|jpy))`)
	reContact  = regexp.MustCompile(`(?i)(?:telegram|whatsapp|dm|pm|contact|message)`)

	reURL        = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	reNonLexical = regexp.MustCompile(`[^\w\s.,!?$€£¥]`)
)

// urgencyWords are matched against preprocessed tokens, so entries are
// single lowercase words with punctuation already stripped
var urgencyWords = map[string]struct{}{
	"hurry":     {},
	"quick":     {},
	"fast":      {},
	"limited":   {},
	"exclusive": {},
	"now":       {},
	"urgent":    {},
	"dont":      {},
}

// Signature is the structural fingerprint of one message
type Signature struct {
	Monetary bool
	Contact  bool
	Urgency  bool
	Hosts    map[string]struct{}
	Tokens   map[string]struct{}
}

// Hosts pulls the lowercased hostnames out of every URL in text
func Hosts(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, raw := range reURL.FindAllString(text, -1) {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		out[strings.ToLower(u.Host)] = struct{}{}
	}
	return out
}

// Preprocess strips URLs and non-lexical characters, lowercases, and
// collapses whitespace. Currency symbols and basic punctuation survive
func Preprocess(text string) string {
	text = reURL.ReplaceAllString(text, "")
	text = reNonLexical.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Extract builds the fingerprint for text. Pattern checks run on the
// original text; token checks run on the preprocessed form
func Extract(text string) Signature {
	tokens := map[string]struct{}{}
	urgency := false
	for _, tok := range strings.Fields(Preprocess(text)) {
		tokens[tok] = struct{}{}
		if _, ok := urgencyWords[tok]; ok {
			urgency = true
		}
	}
	return Signature{
		Monetary: reMonetary.MatchString(text),
		Contact:  reContact.MatchString(text),
		Urgency:  urgency,
		Hosts:    Hosts(text),
		Tokens:   tokens,
	}
}

// Compare scores two fingerprints by agreement across four checks:
// monetary flag, shared hosts, contact flag, urgency flag. The result
// is in [0, 1]
func Compare(a, b Signature) float64 {
	score := 0.0
	if a.Monetary == b.Monetary {
		score++
	}
	if intersects(a.Hosts, b.Hosts) {
		score++
	}
	if a.Contact == b.Contact {
		score++
	}
	if a.Urgency == b.Urgency {
		score++
	}
	return score / 4
}

// Patterns lists the signals present in s, for diagnostics
func (s Signature) Patterns() []string {
	var out []string
	if s.Monetary {
		out = append(out, "monetary")
	}
	if len(s.Hosts) > 0 {
		out = append(out, "urls")
	}
	if s.Contact {
		out = append(out, "contact")
	}
	if s.Urgency {
		out = append(out, "urgency")
	}
	return out
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
