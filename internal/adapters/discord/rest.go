package discord

import (
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	perr "scamwatch/internal/platform/errors"
)

// Rest performs enforcement actions against the guild REST API
type Rest struct {
	session *discordgo.Session
}

// NewRest wraps an authenticated session
func NewRest(s *discordgo.Session) *Rest {
	return &Rest{session: s}
}

// MemberPresent reports whether the user is still in the guild. A
// missing member is a normal answer, not an error
func (r *Rest) MemberPresent(guildID, userID string) (bool, error) {
	_, err := r.session.GuildMember(guildID, userID)
	if err == nil {
		return true, nil
	}
	if restErr, ok := err.(*discordgo.RESTError); ok {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
			return false, nil
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
	}
	return false, perr.Externalf("fetch member %s in guild %s: %v", userID, guildID, err)
}

// Ban removes the user and deletes their recent messages, scoped to
// deleteSeconds of history
func (r *Rest) Ban(guildID, userID, reason string, deleteSeconds int) error {
	data := struct {
		DeleteMessageSeconds int `json:"delete_message_seconds"`
	}{deleteSeconds}
	endpoint := discordgo.EndpointGuildBan(guildID, userID)
	_, err := r.session.RequestWithBucketID(
		http.MethodPut, endpoint, data,
		discordgo.EndpointGuildBan(guildID, ""),
		discordgo.WithAuditLogReason(reason),
	)
	if err != nil {
		return perr.Externalf("ban %s in guild %s: %v", userID, guildID, err)
	}
	return nil
}

// Kick removes the user without a ban record
func (r *Rest) Kick(guildID, userID, reason string) error {
	if err := r.session.GuildMemberDeleteWithReason(guildID, userID, reason); err != nil {
		return perr.Externalf("kick %s from guild %s: %v", userID, guildID, err)
	}
	return nil
}

// Timeout mutes the user for the given duration
func (r *Rest) Timeout(guildID, userID string, d time.Duration) error {
	until := time.Now().Add(d)
	if err := r.session.GuildMemberTimeout(guildID, userID, &until); err != nil {
		return perr.Externalf("timeout %s in guild %s: %v", userID, guildID, err)
	}
	return nil
}

// Send posts a text message to a channel
func (r *Rest) Send(channelID, content string) error {
	if _, err := r.session.ChannelMessageSend(channelID, content); err != nil {
		return perr.Externalf("send to channel %s: %v", channelID, err)
	}
	return nil
}

// SendFile posts an attachment to a channel
func (r *Rest) SendFile(channelID, name string, data io.Reader) error {
	if _, err := r.session.ChannelFileSend(channelID, name, data); err != nil {
		return perr.Externalf("send file to channel %s: %v", channelID, err)
	}
	return nil
}
