// Package sentinel reports enforcement actions to the external ban
// registry so bans survive across guilds and bot restarts.
package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
)

// BanRecord is one enforcement report
type BanRecord struct {
	MemberID        string `json:"memberId"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	ServerID        string `json:"serverId"`
	ServerName      string `json:"serverName"`
	CapturedMessage string `json:"capturedMessage"`
	Reason          string `json:"reason"`
}

// Client talks to the registry. All calls carry the API key header
type Client struct {
	base   string
	apiKey string
	http   *http.Client
	log    logger.Logger
}

// NewClient creates a registry client
func NewClient(base, apiKey string) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    *logger.Named("sentinel"),
	}
}

// ReportBan records a ban. The registry answers 201 on success;
// anything else is an error
func (c *Client) ReportBan(ctx context.Context, rec BanRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "sentinel marshal ban record failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/ban", bytes.NewReader(body))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "sentinel new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "sentinel do failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return perr.Externalf("sentinel ban report status %d body %s", resp.StatusCode, string(tail))
	}
	c.log.Info().Str("member_id", rec.MemberID).Str("guild_id", rec.ServerID).Msg("ban reported")
	return nil
}

// BannedMembers lists the member ids on record, deduplicated
func (c *Client) BannedMembers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/bans", nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "sentinel new request failed")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sentinel do failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Externalf("sentinel ban list status %d", resp.StatusCode)
	}

	var payload struct {
		Bans []struct {
			MemberID string `json:"memberId"`
		} `json:"bans"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeExternal, "sentinel decode ban list failed")
	}

	seen := map[string]struct{}{}
	var out []string
	for _, b := range payload.Bans {
		if _, ok := seen[b.MemberID]; ok || b.MemberID == "" {
			continue
		}
		seen[b.MemberID] = struct{}{}
		out = append(out, b.MemberID)
	}
	return out, nil
}
