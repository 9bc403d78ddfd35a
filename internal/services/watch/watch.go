// Package watch is the screening pipeline. It takes filtered gateway
// events, normalizes the text, expands any links, scores the message,
// and asks moderation to act on what clears the bar.
package watch

import (
	"context"
	"strings"

	"scamwatch/internal/adapters/discord"
	"scamwatch/internal/core/confusable"
	"scamwatch/internal/core/signature"
	"scamwatch/internal/core/urlnorm"
	"scamwatch/internal/platform/logger"
	"scamwatch/internal/services/dispatch"
	"scamwatch/internal/services/moderation"
)

// Expander resolves a link to its final destination
type Expander interface {
	Expand(ctx context.Context, rawURL string) (string, error)
}

// URLCleaner rescues URLs the deterministic cleaner could not handle
type URLCleaner interface {
	CleanURL(ctx context.Context, raw string) (string, error)
}

// InviteDirectory resolves an invite code to its guild name
type InviteDirectory interface {
	GuildName(ctx context.Context, code string) (string, error)
}

// Analyzer scores a message against the corpus
type Analyzer interface {
	Analyze(ctx context.Context, text string) (signature.Verdict, error)
	Config() signature.Config
}

// Enforcer acts on a flagged actor
type Enforcer interface {
	Ban(ctx context.Context, t moderation.Target, reason string) error
}

// Service wires the pipeline together
type Service struct {
	analyzer Analyzer
	expander Expander
	cleaner  URLCleaner // optional
	invites  InviteDirectory
	enforcer Enforcer
	ignore   map[string]struct{}
	log      logger.Logger
}

// Deps lists what the Service needs. Cleaner may be nil when no model
// endpoint is configured
type Deps struct {
	Analyzer Analyzer
	Expander Expander
	Cleaner  URLCleaner
	Invites  InviteDirectory
	Enforcer Enforcer
	// IgnoreDomains are hosts whose links are left alone, lowercased
	IgnoreDomains map[string]struct{}
}

// NewService creates the pipeline service
func NewService(d Deps) *Service {
	return &Service{
		analyzer: d.Analyzer,
		expander: d.Expander,
		cleaner:  d.Cleaner,
		invites:  d.Invites,
		enforcer: d.Enforcer,
		ignore:   d.IgnoreDomains,
		log:      *logger.Named("watch"),
	}
}

// Handlers returns the dispatch registry for this service
func (s *Service) Handlers() map[string]dispatch.Handler {
	return map[string]dispatch.Handler{
		"message": s.HandleMessage,
		"join":    s.HandleJoin,
	}
}

// HandleMessage screens one message end to end
func (s *Service) HandleMessage(ctx context.Context, ev dispatch.Event) {
	text := ev.Text
	if hasMultipleLines(text) {
		// scammers split links across lines to dodge extraction
		text = combineLines(text)
	}
	folded := confusable.Fold(text)

	finalLink := s.processURL(ctx, folded)
	if finalLink != "" && isPlatformURL(finalLink) {
		if s.screenInvite(ctx, ev, finalLink) {
			return
		}
	}

	verdict, err := s.analyzer.Analyze(ctx, folded)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("analysis failed")
		return
	}
	if !verdict.Flagged(s.analyzer.Config()) {
		return
	}

	logger.C(ctx).Info().
		Float64("similarity", verdict.Similarity).
		Str("category", verdict.MatchedCategory).
		Strs("flags", verdict.Flags).
		Msg("message flagged")

	if err := s.enforcer.Ban(ctx, targetOf(ev), "Scam Attempt"); err != nil {
		logger.C(ctx).Error().Err(err).Msg("enforcement failed")
	}
}

// HandleJoin records new arrivals. Joins feed no enforcement on their
// own; the join-age gate at intake does the real work
func (s *Service) HandleJoin(ctx context.Context, ev dispatch.Event) {
	logger.C(ctx).Debug().Str("username", ev.Username).Msg("member joined")
}

// screenInvite checks whether a platform invite leads to a guild whose
// name reads like a fake support desk. Reports whether it enforced
func (s *Service) screenInvite(ctx context.Context, ev dispatch.Event, link string) bool {
	code := discord.InviteCode(link)
	if code == "" {
		return false
	}
	name, err := s.invites.GuildName(ctx, code)
	if err != nil {
		logger.C(ctx).Debug().Err(err).Str("code", code).Msg("invite lookup failed")
		return false
	}
	if !isScamServerName(name) {
		return false
	}

	logger.C(ctx).Info().Str("guild_name", name).Str("link", link).Msg("scam server invite detected")
	if err := s.enforcer.Ban(ctx, targetOf(ev), "Scam Attempt"); err != nil {
		logger.C(ctx).Error().Err(err).Msg("enforcement failed")
	}
	return true
}

// processURL extracts the first usable link from text and expands it.
// Ignored hosts come back as-is; expansion failures fall back to the
// model cleaner when one is configured
func (s *Service) processURL(ctx context.Context, text string) string {
	urls := urlnorm.Extract(text)
	if len(urls) == 0 {
		return ""
	}
	link := urls[0]

	if _, ok := s.ignore[hostOf(link)]; ok {
		return link
	}

	expanded, err := s.expander.Expand(ctx, link)
	if err == nil {
		return expanded
	}
	logger.C(ctx).Debug().Err(err).Str("url", link).Msg("expansion failed, trying model cleaner")

	if s.cleaner == nil {
		return link
	}
	rescued, cerr := s.cleaner.CleanURL(ctx, link)
	if cerr != nil {
		logger.C(ctx).Debug().Err(cerr).Msg("model cleaner failed")
		return link
	}
	// never trust model output as-is
	if cleaned := urlnorm.Clean(rescued); cleaned != "" {
		return cleaned
	}
	return link
}

func targetOf(ev dispatch.Event) moderation.Target {
	return moderation.Target{
		GuildID:     ev.GuildID,
		ActorID:     ev.ActorID,
		Username:    ev.Username,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
		Message:     ev.Text,
	}
}

func hostOf(rawURL string) string {
	u := rawURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.Index(u, ":"); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(u)
}
