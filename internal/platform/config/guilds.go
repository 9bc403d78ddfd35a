package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// GuildSettings holds per-guild moderation wiring
type GuildSettings struct {
	// BanChannelID is the channel that receives notices, confirmations, and evidence
	BanChannelID string `json:"ban_channel" validate:"required,numeric"`
	// Color is the accent color for evidence panels, as 0xRRGGBB
	Color int `json:"color" validate:"gte=0,lte=16777215"`
}

// Guilds maps a guild snowflake to its settings. Events from guilds not in
// the map are dropped at intake.
type Guilds map[string]GuildSettings

// Monitored reports whether the guild is configured
func (g Guilds) Monitored(guildID string) bool {
	_, ok := g[guildID]
	return ok
}

// LoadGuilds reads and validates the guild settings file
func LoadGuilds(path string) (Guilds, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guild settings %q: %w", path, err)
	}
	var g Guilds
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("parse guild settings %q: %w", path, err)
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("guild settings %q: no guilds configured", path)
	}
	v := validator.New()
	for id, gs := range g {
		if err := v.Struct(gs); err != nil {
			return nil, fmt.Errorf("guild settings %q: guild %s: %w", path, id, err)
		}
	}
	return g, nil
}
