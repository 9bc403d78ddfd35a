package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"scamwatch/internal/adapters/discord"
	"scamwatch/internal/adapters/llm"
	"scamwatch/internal/adapters/resolve"
	"scamwatch/internal/adapters/sentinel"
	"scamwatch/internal/core/corpus"
	"scamwatch/internal/core/signature"
	modkit "scamwatch/internal/modkit"
	regmod "scamwatch/internal/modkit/module"
	"scamwatch/internal/platform/config"
	"scamwatch/internal/platform/logger"
	phttp "scamwatch/internal/platform/net/http"
	"scamwatch/internal/platform/net/middleware"
	adminmod "scamwatch/internal/services/admin/module"
	"scamwatch/internal/services/dispatch"
	"scamwatch/internal/services/moderation"
	"scamwatch/internal/services/watch"
)

// defaultIgnoreDomains are hosts whose links are never expanded or
// scored. Mostly media CDNs that show up in ordinary chatter
var defaultIgnoreDomains = []string{
	"x.com",
	"tenor.com",
	"cdn.discordapp.com",
	"tama.meme",
	"media.discordapp.net",
	"app.axieinfinity.com",
}

// gatewaySink bridges screened gateway events into the dispatcher
// queue. The dispatcher is attached after construction because the
// enforcement side needs the gateway session first
type gatewaySink struct{ d *dispatch.Dispatcher }

func (s *gatewaySink) Submit(ev discord.Inbound) {
	if s.d == nil {
		return
	}
	s.d.Submit(dispatch.Event{
		Kind:        ev.Kind,
		GuildID:     ev.GuildID,
		ActorID:     ev.ActorID,
		Username:    ev.Username,
		DisplayName: ev.DisplayName,
		AvatarURL:   ev.AvatarURL,
		ChannelID:   ev.ChannelID,
		MessageID:   ev.MessageID,
		Text:        ev.Text,
	})
}

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	root := config.New()
	coreCfg := root.Prefix("CORE_") // HTTP surface and queue sizing
	discordCfg := root.Prefix("SERVICE_DISCORD_")
	modelCfg := root.Prefix("SERVICE_MODEL_")
	registryCfg := root.Prefix("SERVICE_REGISTRY_")
	watchCfg := root.Prefix("CORE_WATCH_")

	guilds, err := config.LoadGuilds(discordCfg.MayString("GUILDS", "guilds.json"))
	if err != nil {
		l.Panic().Err(err).Msg("guild settings load failed")
	}

	store, err := corpus.Load(watchCfg.MayString("CORPUS", "corpus.json"))
	if err != nil {
		l.Panic().Err(err).Msg("corpus load failed")
	}

	model := llm.NewClient(llm.Options{
		BaseURL:    modelCfg.MayString("BASE_URL", ""),
		EmbedModel: modelCfg.MayString("EMBED_MODEL", ""),
		ChatModel:  modelCfg.MayString("CHAT_MODEL", ""),
		KeysCSV:    modelCfg.MayString("KEYS", ""),
	})

	engine := signature.NewEngine(store, model, signature.Config{
		MinSignature: watchCfg.MayFloat64("MIN_SIGNATURE", 0),
		MinSemantic:  watchCfg.MayFloat64("MIN_SEMANTIC", 0),
		Threshold:    watchCfg.MayFloat64("THRESHOLD", 0),
	})

	ignore := watchCfg.MaySet("IGNORE_DOMAINS", defaultIgnoreDomains)
	chain := resolve.NewChain(resolve.ChainConfig{
		// domain-registered resolvers take precedence over the
		// capability-matched shortlink resolver
		Resolvers: []resolve.Resolver{
			resolve.NewBrowser(nil),
			resolve.NewShortlink(nil),
		},
		IgnoreDomains: ignore,
		CacheSize:     watchCfg.MayInt("URL_CACHE", 0),
		BatchLimit:    watchCfg.MayInt("URL_BATCH", 0),
	})

	var reporter moderation.Reporter
	if base := registryCfg.MayString("URL", ""); base != "" {
		sc := sentinel.NewClient(base, registryCfg.MayString("API_KEY", ""))
		reporter = sc
		if ids, err := sc.BannedMembers(context.Background()); err != nil {
			l.Warn().Err(err).Msg("registry ban list unavailable")
		} else {
			l.Info().Int("known_bans", len(ids)).Msg("registry reachable")
		}
	}

	sink := &gatewaySink{}
	gw, err := discord.NewGateway(discordCfg.MustString("TOKEN"), guilds, sink)
	if err != nil {
		l.Panic().Err(err).Msg("gateway setup failed")
	}

	mod := moderation.NewService(
		discord.NewRest(gw.Session()),
		reporter,
		guilds,
		watchCfg.MayBool("DELAYED_BAN", false),
	)

	watcher := watch.NewService(watch.Deps{
		Analyzer:      engine,
		Expander:      chain,
		Cleaner:       model,
		Invites:       discord.NewInvites(discordCfg.MayString("INVITE_API", "")),
		Enforcer:      mod,
		IgnoreDomains: ignore,
	})

	disp := dispatch.New(dispatch.Config{
		QueueSize:    coreCfg.MayInt("QUEUE_SIZE", 0),
		LockCapacity: coreCfg.MayInt("LOCK_CAPACITY", 0),
	}, watcher.Handlers())
	sink.d = disp

	srv := phttp.NewServer(coreCfg)
	router := srv.Router()
	router.Use(middleware.Defaults()...)
	router.Use(middleware.Heartbeat("/healthz"))
	router.Use(
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: coreCfg.MayCSV("CORS_ORIGINS", []string{"*"}),
		}),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: coreCfg.MayDuration("SLOW_REQUEST", 0)}),
		middleware.RecoverJSON,
	)

	admin := adminmod.New(modkit.Deps{
		Log:    *l,
		Cfg:    coreCfg,
		Guilds: guilds,
		Corpus: store,
		Engine: engine,
	})
	admin.MountRoutes(router)
	regmod.Register(admin.Name(), admin.Ports())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go disp.Run(ctx)
	go func() {
		if err := srv.Run(ctx); err != nil {
			l.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	if err := gw.Open(); err != nil {
		l.Panic().Err(err).Msg("gateway connect failed")
	}
	l.Info().Int("guilds", len(guilds)).Msg("watching")

	<-ctx.Done()

	if err := gw.Close(); err != nil {
		l.Error().Err(err).Msg("gateway close failed")
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		l.Error().Err(err).Msg("http shutdown failed")
	}
	l.Info().Msg("stopped")
}
