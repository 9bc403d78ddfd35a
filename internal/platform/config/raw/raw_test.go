package raw

import (
	"testing"
)

// Test String with prefixing and trimming
func TestConfString(t *testing.T) {
	t.Setenv("APP_NAME", " scamwatch ")
	t.Setenv("BOT_TOKEN", " abc123 ")

	root := New()
	bot := root.Prefix("BOT_")

	tests := []struct {
		name string
		conf Conf
		key  string
		def  string
		want string
	}{
		{name: "root no default used", conf: root, key: "APP_NAME", def: "x", want: "scamwatch"},
		{name: "prefixed hit", conf: bot, key: "TOKEN", def: "x", want: "abc123"},
		{name: "missing returns default", conf: bot, key: "MISSING", def: "defv", want: "defv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.conf.String(tt.key, tt.def)
			if got != tt.want {
				t.Fatalf("String(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// Test Bool with truthy and falsy variants and defaults
func TestConfBool(t *testing.T) {
	bot := New().Prefix("BOT_")

	t.Setenv("BOT_T1", "true")
	t.Setenv("BOT_T2", "1")
	t.Setenv("BOT_T3", "YES")
	t.Setenv("BOT_F1", "false")
	t.Setenv("BOT_F2", "0")
	t.Setenv("BOT_F3", "no")
	t.Setenv("BOT_WS", "   true   ")

	tests := []struct {
		name string
		key  string
		def  bool
		want bool
	}{
		{name: "true", key: "T1", def: false, want: true},
		{name: "1", key: "T2", def: false, want: true},
		{name: "YES", key: "T3", def: false, want: true},
		{name: "false", key: "F1", def: true, want: false},
		{name: "0", key: "F2", def: true, want: false},
		{name: "no", key: "F3", def: true, want: false},
		{name: "whitespace trimmed", key: "WS", def: false, want: true},
		{name: "missing uses default true", key: "MISSING", def: true, want: true},
		{name: "missing uses default false", key: "MISSING2", def: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bot.Bool(tt.key, tt.def); got != tt.want {
				t.Fatalf("Bool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// Test Int with numeric, non numeric, trimming, and defaults
func TestConfInt(t *testing.T) {
	sys := New().Prefix("SYS_")

	t.Setenv("SYS_OK", "42")
	t.Setenv("SYS_WS", "  7  ")
	t.Setenv("SYS_NONNUM", "12x")
	t.Setenv("SYS_NEG", "-5")

	tests := []struct {
		name string
		key  string
		def  int
		want int
	}{
		{name: "numeric", key: "OK", def: 0, want: 42},
		{name: "trimmed", key: "WS", def: 1, want: 7},
		{name: "non numeric falls back", key: "NONNUM", def: 9, want: 9},
		{name: "negative parses", key: "NEG", def: 3, want: -5},
		{name: "missing uses default", key: "MISSING", def: 11, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sys.Int(tt.key, tt.def); got != tt.want {
				t.Fatalf("Int(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

// Test Prefix composition does not collide and composes correctly
func TestPrefixComposition(t *testing.T) {
	root := New()
	log := root.Prefix("LOG_")
	bot := root.Prefix("BOT_")
	botLog := bot.Prefix("LOG_") // nested

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("BOT_LEVEL", "debug")
	t.Setenv("BOT_LOG_MODE", "console")

	if got := log.String("LEVEL", ""); got != "info" {
		t.Fatalf("LOG_.String LEVEL = %q, want %q", got, "info")
	}
	if got := bot.String("LEVEL", ""); got != "debug" {
		t.Fatalf("BOT_.String LEVEL = %q, want %q", got, "debug")
	}
	if got := botLog.String("MODE", ""); got != "console" {
		t.Fatalf("BOT_LOG_.String MODE = %q, want %q", got, "console")
	}
}
