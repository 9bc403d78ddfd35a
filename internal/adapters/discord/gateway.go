// Package discord wraps the chat platform gateway and REST surface.
// Gateway intake filters the event firehose down to what the pipeline
// cares about; the REST client carries out enforcement actions.
package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"scamwatch/internal/platform/config"
	"scamwatch/internal/platform/logger"
)

// maxJoinAgeDays bounds how recently an author must have joined for
// their messages to be screened. Long-standing members are left alone
const maxJoinAgeDays = 50

// utilityAccounts are known service accounts whose messages are never
// screened
var utilityAccounts = map[string]struct{}{
	"396548639641567232":  {}, // market bot (current)
	"1110593454012104745": {}, // market bot (legacy)
	"823695836319055883":  {},
	"1230221894221824222": {},
	"1217477415757025444": {},
}

// Inbound is one screened gateway event handed to the pipeline
type Inbound struct {
	Kind        string // "message" or "join"
	GuildID     string
	ActorID     string
	Username    string
	DisplayName string
	AvatarURL   string
	ChannelID   string
	MessageID   string
	Text        string
}

// Sink receives screened events. Submit must not block; the gateway
// goroutine is shared with the library's dispatch loop
type Sink interface {
	Submit(ev Inbound)
}

// Gateway owns the websocket session and forwards screened events
type Gateway struct {
	session *discordgo.Session
	guilds  config.Guilds
	sink    Sink
	log     logger.Logger
	now     func() time.Time
}

// NewGateway creates a Gateway over an authenticated session
func NewGateway(token string, guilds config.Guilds, sink Sink) (*Gateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	g := &Gateway{
		session: s,
		guilds:  guilds,
		sink:    sink,
		log:     *logger.Named("gateway"),
		now:     time.Now,
	}
	s.AddHandler(g.onMessageCreate)
	s.AddHandler(g.onMemberAdd)
	return g, nil
}

// Open connects the websocket
func (g *Gateway) Open() error { return g.session.Open() }

// Close shuts the websocket down
func (g *Gateway) Close() error { return g.session.Close() }

// Session exposes the underlying session for the REST enforcer
func (g *Gateway) Session() *discordgo.Session { return g.session }

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return // DMs and webhooks are out of scope
	}
	if !g.guilds.Monitored(m.GuildID) {
		return
	}
	if _, ok := utilityAccounts[m.Author.ID]; ok {
		return
	}
	if m.Member == nil || !joinedWithin(m.Member.JoinedAt, g.now(), maxJoinAgeDays) {
		return
	}

	text := MessageText(m.Message)
	if text == "" {
		return
	}

	g.sink.Submit(Inbound{
		Kind:        "message",
		GuildID:     m.GuildID,
		ActorID:     m.Author.ID,
		Username:    m.Author.Username,
		DisplayName: displayName(m.Member, m.Author),
		AvatarURL:   m.Author.AvatarURL("128"),
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		Text:        text,
	})
}

func (g *Gateway) onMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if !g.guilds.Monitored(e.GuildID) || e.User == nil {
		return
	}
	g.sink.Submit(Inbound{
		Kind:        "join",
		GuildID:     e.GuildID,
		ActorID:     e.User.ID,
		Username:    e.User.Username,
		DisplayName: displayName(e.Member, e.User),
		AvatarURL:   e.User.AvatarURL("128"),
	})
}

// MessageText returns the text to screen. Automod action notices carry
// the blocked content in an embed description instead of the body
func MessageText(m *discordgo.Message) string {
	if m.Type == discordgo.MessageTypeAutoModerationAction {
		for _, e := range m.Embeds {
			if e.Description != "" {
				return e.Description
			}
		}
		return ""
	}
	return m.Content
}

// joinedWithin reports whether joinedAt falls inside the last maxDays
func joinedWithin(joinedAt time.Time, now time.Time, maxDays int) bool {
	if joinedAt.IsZero() {
		return false
	}
	return now.Sub(joinedAt) < time.Duration(maxDays)*24*time.Hour
}

func displayName(m *discordgo.Member, u *discordgo.User) string {
	if m != nil && m.Nick != "" {
		return m.Nick
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
