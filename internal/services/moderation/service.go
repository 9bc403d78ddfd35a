// Package moderation carries out enforcement: removing an actor,
// announcing it, attaching evidence, and recording it in the external
// ban registry.
package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"scamwatch/internal/adapters/sentinel"
	"scamwatch/internal/platform/config"
	"scamwatch/internal/platform/logger"
)

// banDeleteSeconds scopes how much of the actor's recent message
// history is purged on ban
const banDeleteSeconds = 3600

// defaultTimeout is the mute length when no duration is given
const defaultTimeout = 60 * time.Second

// Actions is the guild REST surface the service drives
type Actions interface {
	MemberPresent(guildID, userID string) (bool, error)
	Ban(guildID, userID, reason string, deleteSeconds int) error
	Kick(guildID, userID, reason string) error
	Timeout(guildID, userID string, d time.Duration) error
	Send(channelID, content string) error
	SendFile(channelID, name string, data io.Reader) error
}

// Reporter records bans in the external registry
type Reporter interface {
	ReportBan(ctx context.Context, rec sentinel.BanRecord) error
}

// Target identifies who is being enforced against and what they wrote
type Target struct {
	GuildID     string
	GuildName   string
	ActorID     string
	Username    string
	DisplayName string
	AvatarURL   string
	Message     string
}

// Service executes enforcement actions
type Service struct {
	acts     Actions
	reporter Reporter
	guilds   config.Guilds
	log      logger.Logger

	// Delayed adds a short randomized pause between the notice and the
	// ban, so the notice lands before the member list updates
	delayed bool
	sleep   func(time.Duration)
}

// NewService creates a moderation Service. reporter may be nil when no
// registry is configured
func NewService(acts Actions, reporter Reporter, guilds config.Guilds, delayed bool) *Service {
	return &Service{
		acts:     acts,
		reporter: reporter,
		guilds:   guilds,
		log:      *logger.Named("moderation"),
		delayed:  delayed,
		sleep:    time.Sleep,
	}
}

// Ban removes the target, purges an hour of their messages, posts a
// notice and confirmation to the guild's ban channel, attaches the
// evidence panel when a message was captured, and reports the ban.
// A target that already left is skipped silently
func (s *Service) Ban(ctx context.Context, t Target, reason string) error {
	present, err := s.acts.MemberPresent(t.GuildID, t.ActorID)
	if err != nil {
		return err
	}
	if !present {
		logger.C(ctx).Debug().Msg("ban target already gone")
		return nil
	}

	gs, ok := s.guilds[t.GuildID]
	if !ok {
		logger.C(ctx).Warn().Msg("ban in unconfigured guild, nothing to announce")
		return s.acts.Ban(t.GuildID, t.ActorID, reason, banDeleteSeconds)
	}

	if err := s.acts.Send(gs.BanChannelID, "<@"+t.ActorID+">"); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ban notice failed")
	}
	if s.delayed {
		s.sleep(time.Duration(4000+rand.Intn(2000)) * time.Millisecond)
	}

	if err := s.acts.Ban(t.GuildID, t.ActorID, reason, banDeleteSeconds); err != nil {
		return err
	}
	logger.C(ctx).Info().Str("reason", reason).Msg("actor banned")

	confirmation := fmt.Sprintf("**Banned**\nUID: %s\nReason: %s", t.ActorID, reason)
	if err := s.acts.Send(gs.BanChannelID, confirmation); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ban confirmation failed")
	}

	if t.Message != "" {
		s.sendEvidence(ctx, t, reason, gs)
	}
	s.report(ctx, t, reason)
	return nil
}

// Kick removes the target without a ban record, with notice and
// confirmation
func (s *Service) Kick(ctx context.Context, t Target, reason string) error {
	present, err := s.acts.MemberPresent(t.GuildID, t.ActorID)
	if err != nil {
		return err
	}
	if !present {
		logger.C(ctx).Debug().Msg("kick target already gone")
		return nil
	}

	gs, hasChannel := s.guilds[t.GuildID]
	if hasChannel {
		if err := s.acts.Send(gs.BanChannelID, "<@"+t.ActorID+">"); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("kick notice failed")
		}
	}
	if err := s.acts.Kick(t.GuildID, t.ActorID, reason); err != nil {
		return err
	}
	logger.C(ctx).Info().Str("reason", reason).Msg("actor kicked")

	if hasChannel {
		confirmation := fmt.Sprintf("**Kicked**\nUID: %s\nReason: %s", t.ActorID, reason)
		if err := s.acts.Send(gs.BanChannelID, confirmation); err != nil {
			logger.C(ctx).Warn().Err(err).Msg("kick confirmation failed")
		}
	}
	return nil
}

// Timeout mutes the target. A zero duration uses the default
func (s *Service) Timeout(ctx context.Context, t Target, reason string, d time.Duration) error {
	present, err := s.acts.MemberPresent(t.GuildID, t.ActorID)
	if err != nil {
		return err
	}
	if !present {
		logger.C(ctx).Debug().Msg("timeout target already gone")
		return nil
	}
	if d <= 0 {
		d = defaultTimeout
	}
	if err := s.acts.Timeout(t.GuildID, t.ActorID, d); err != nil {
		return err
	}
	logger.C(ctx).Info().Str("reason", reason).Dur("duration", d).Msg("actor timed out")
	return nil
}

// sendEvidence renders and posts the evidence panel. Failures are
// logged, never fatal; the ban already happened
func (s *Service) sendEvidence(ctx context.Context, t Target, reason string, gs config.GuildSettings) {
	avatar, err := FetchAvatar(ctx, t.AvatarURL)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Msg("avatar unavailable, rendering panel without it")
		avatar = nil
	}
	pngBytes, err := RenderPanel(Panel{
		Username: t.Username,
		UID:      t.ActorID,
		Reason:   reason,
		Message:  t.Message,
		Avatar:   avatar,
		Accent:   gs.Color,
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("evidence panel render failed")
		return
	}
	if err := s.acts.SendFile(gs.BanChannelID, "evidence.png", bytes.NewReader(pngBytes)); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("evidence upload failed")
	}
}

// report sends the ban to the registry, best effort
func (s *Service) report(ctx context.Context, t Target, reason string) {
	if s.reporter == nil {
		return
	}
	rec := sentinel.BanRecord{
		MemberID:        t.ActorID,
		Username:        t.Username,
		DisplayName:     t.DisplayName,
		ServerID:        t.GuildID,
		ServerName:      t.GuildName,
		CapturedMessage: t.Message,
		Reason:          reason,
	}
	if err := s.reporter.ReportBan(ctx, rec); err != nil {
		logger.C(ctx).Warn().Err(err).Msg("ban registry report failed")
	}
}
