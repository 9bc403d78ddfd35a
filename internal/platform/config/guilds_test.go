package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGuildFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "guilds.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp guild file: %v", err)
	}
	return p
}

func TestLoadGuilds_OK(t *testing.T) {
	p := writeGuildFile(t, `{
		"111222333444555666": {"ban_channel": "999888777666555444", "color": 15158332},
		"222333444555666777": {"ban_channel": "888777666555444333", "color": 3066993}
	}`)
	g, err := LoadGuilds(p)
	if err != nil {
		t.Fatalf("LoadGuilds: %v", err)
	}
	if len(g) != 2 {
		t.Fatalf("guilds len = %d, want 2", len(g))
	}
	if !g.Monitored("111222333444555666") {
		t.Fatalf("expected guild to be monitored")
	}
	if g.Monitored("000000000000000000") {
		t.Fatalf("unconfigured guild reported as monitored")
	}
	if g["111222333444555666"].BanChannelID != "999888777666555444" {
		t.Fatalf("ban channel mismatch: %+v", g["111222333444555666"])
	}
}

func TestLoadGuilds_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty map", `{}`},
		{"bad json", `{`},
		{"missing ban_channel", `{"1": {"color": 0}}`},
		{"non-numeric ban_channel", `{"1": {"ban_channel": "general", "color": 0}}`},
		{"color out of range", `{"1": {"ban_channel": "2", "color": 16777216}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := writeGuildFile(t, c.body)
			if _, err := LoadGuilds(p); err == nil {
				t.Fatalf("expected error for %s", c.name)
			}
		})
	}
}

func TestLoadGuilds_MissingFile(t *testing.T) {
	if _, err := LoadGuilds(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
