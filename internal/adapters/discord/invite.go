package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	perr "scamwatch/internal/platform/errors"
)

const inviteAPIDefault = "https://discord.com/api/v8"

var reInvite = regexp.MustCompile(`https?://discord(?:\.com/invite|\.gg)/([a-zA-Z0-9-]+)`)

// InviteCode extracts the invite code from a platform invite URL, or ""
func InviteCode(rawURL string) string {
	m := reInvite.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// Invites looks up invite metadata through the public API, without a
// session. Invite pages are public; authenticating the lookup would
// only tie it to the bot identity
type Invites struct {
	base   string
	client *http.Client
}

// NewInvites creates an invite lookup client. An empty base uses the
// public API
func NewInvites(base string) *Invites {
	if base == "" {
		base = inviteAPIDefault
	}
	return &Invites{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// GuildName resolves an invite code to the name of the guild behind it
func (i *Invites) GuildName(ctx context.Context, code string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.base+"/invites/"+code, nil)
	if err != nil {
		return "", perr.Externalf("invite lookup %s: bad request: %v", code, err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return "", perr.Externalf("invite lookup %s: %v", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", perr.Externalf("invite lookup %s: http status %d", code, resp.StatusCode)
	}

	var payload struct {
		Guild struct {
			Name string `json:"name"`
		} `json:"guild"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", perr.Externalf("invite lookup %s: decode: %v", code, err)
	}
	if payload.Guild.Name == "" {
		return "", perr.NotFoundf("invite %s has no guild", code)
	}
	return payload.Guild.Name, nil
}
