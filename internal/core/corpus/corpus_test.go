package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleFile = `{
  "messages": [
    {"text": "Free nitro, click fast", "category": "nitro_scam", "flags": ["contains_monetary"]},
    {"text": "DM me for steam gifts", "category": "gift_scam", "flags": ["contact_solicitation"]}
  ],
  "domains": ["Evil.Example", "grab-nitro.example"]
}`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp corpus: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	s, err := Load(writeTemp(t, sampleFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.Messages()); got != 2 {
		t.Fatalf("messages: got %d want 2", got)
	}
	want := []string{"evil.example", "grab-nitro.example"}
	if got := s.Domains(); !reflect.DeepEqual(got, want) {
		t.Fatalf("domains: got %v want %v", got, want)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Messages()) != 0 || len(s.Domains()) != 0 {
		t.Fatalf("expected empty store, got %d messages %d domains", len(s.Messages()), len(s.Domains()))
	}
}

func TestLoad_BadJSON(t *testing.T) {
	if _, err := Load(writeTemp(t, `{"messages": [`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestKnownBad(t *testing.T) {
	s, err := Load(writeTemp(t, sampleFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		host string
		want bool
	}{
		{"exact", "evil.example", true},
		{"case folded", "EVIL.example", true},
		{"whitespace trimmed", "  evil.example ", true},
		{"not listed", "discord.com", false},
		{"no substring match", "sub.evil.example", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.KnownBad(tt.host); got != tt.want {
				t.Fatalf("KnownBad(%q): got %v want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestAddRemoveDomain(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !s.AddDomain("Bad.Example") {
		t.Fatal("first add should change the set")
	}
	if s.AddDomain("bad.example") {
		t.Fatal("second add of the same host should be a no-op")
	}
	if !s.KnownBad("bad.example") {
		t.Fatal("added host should be known bad")
	}
	if !s.RemoveDomain("BAD.EXAMPLE") {
		t.Fatal("remove of a present host should report true")
	}
	if s.RemoveDomain("bad.example") {
		t.Fatal("remove of an absent host should report false")
	}
	if s.AddDomain("   ") {
		t.Fatal("blank host must not be added")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := writeTemp(t, sampleFile)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s.AddDomain("new-bad.example")
	s.RemoveDomain("evil.example")
	s.AddMessage(Entry{Text: "urgent, limited offer", Category: "urgency_scam", Flags: []string{"urgency_tactics"}})
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := []string{"grab-nitro.example", "new-bad.example"}
	if got := s2.Domains(); !reflect.DeepEqual(got, want) {
		t.Fatalf("domains after reload: got %v want %v", got, want)
	}
	msgs := s2.Messages()
	if len(msgs) != 3 {
		t.Fatalf("messages after reload: got %d want 3", len(msgs))
	}
	if msgs[2].Category != "urgency_scam" {
		t.Fatalf("appended message category: got %q", msgs[2].Category)
	}
}

func TestSave_FreshStoreCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.AddDomain("bad.example")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
}
