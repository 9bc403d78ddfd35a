package moderation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font/basicfont"

	"scamwatch/internal/adapters/sentinel"
	"scamwatch/internal/platform/config"
	kit "scamwatch/internal/platform/testkit"
)

type fakeActions struct {
	present    bool
	presentErr error
	banErr     error

	calls []string
	sent  []string
	files []string
}

func (f *fakeActions) MemberPresent(guildID, userID string) (bool, error) {
	f.calls = append(f.calls, "present")
	return f.present, f.presentErr
}

func (f *fakeActions) Ban(guildID, userID, reason string, deleteSeconds int) error {
	f.calls = append(f.calls, fmt.Sprintf("ban:%s:%d", reason, deleteSeconds))
	return f.banErr
}

func (f *fakeActions) Kick(guildID, userID, reason string) error {
	f.calls = append(f.calls, "kick:"+reason)
	return nil
}

func (f *fakeActions) Timeout(guildID, userID string, d time.Duration) error {
	f.calls = append(f.calls, "timeout:"+d.String())
	return nil
}

func (f *fakeActions) Send(channelID, content string) error {
	f.calls = append(f.calls, "send")
	f.sent = append(f.sent, channelID+"|"+content)
	return nil
}

func (f *fakeActions) SendFile(channelID, name string, data io.Reader) error {
	f.calls = append(f.calls, "file:"+name)
	f.files = append(f.files, name)
	return nil
}

type fakeReporter struct {
	recs []sentinel.BanRecord
	err  error
}

func (f *fakeReporter) ReportBan(_ context.Context, rec sentinel.BanRecord) error {
	f.recs = append(f.recs, rec)
	return f.err
}

var testGuilds = config.Guilds{"g-1": {BanChannelID: "ban-ch", Color: 0x112233}}

func newService(acts *fakeActions, rep Reporter) *Service {
	s := NewService(acts, rep, testGuilds, false)
	s.sleep = func(time.Duration) {}
	return s
}

func target() Target {
	return Target{
		GuildID:     "g-1",
		GuildName:   "Some Guild",
		ActorID:     "u-1",
		Username:    "scammer",
		DisplayName: "Legit Support",
		Message:     "free nitro at https://evil.example",
	}
}

func TestBan_FullFlow(t *testing.T) {
	acts := &fakeActions{present: true}
	rep := &fakeReporter{}
	s := newService(acts, rep)

	if err := s.Ban(context.Background(), target(), "Scam Attempt"); err != nil {
		t.Fatalf("Ban: %v", err)
	}

	wantOrder := []string{"present", "send", "ban:Scam Attempt:3600", "send", "file:evidence.png"}
	if len(acts.calls) != len(wantOrder) {
		t.Fatalf("calls: got %v", acts.calls)
	}
	for i, want := range wantOrder {
		if acts.calls[i] != want {
			t.Fatalf("call %d: got %q want %q (all: %v)", i, acts.calls[i], want, acts.calls)
		}
	}

	kit.MustContain(t, acts.sent[0], "ban-ch|<@u-1>")
	kit.MustContain(t, acts.sent[1], "**Banned**\nUID: u-1\nReason: Scam Attempt")

	if len(rep.recs) != 1 {
		t.Fatalf("reports: got %d want 1", len(rep.recs))
	}
	rec := rep.recs[0]
	if rec.MemberID != "u-1" || rec.ServerName != "Some Guild" || rec.Reason != "Scam Attempt" {
		t.Fatalf("record: %+v", rec)
	}
}

func TestBan_AbsentTargetSkipsSilently(t *testing.T) {
	acts := &fakeActions{present: false}
	rep := &fakeReporter{}
	s := newService(acts, rep)

	if err := s.Ban(context.Background(), target(), "Scam Attempt"); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if len(acts.calls) != 1 || acts.calls[0] != "present" {
		t.Fatalf("calls: got %v", acts.calls)
	}
	if len(rep.recs) != 0 {
		t.Fatal("absent target must not be reported")
	}
}

func TestBan_PresenceCheckError(t *testing.T) {
	acts := &fakeActions{presentErr: errors.New("api down")}
	s := newService(acts, nil)
	if err := s.Ban(context.Background(), target(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestBan_NoEvidenceWithoutMessage(t *testing.T) {
	acts := &fakeActions{present: true}
	s := newService(acts, nil)

	tg := target()
	tg.Message = ""
	if err := s.Ban(context.Background(), tg, "Scam Attempt"); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if len(acts.files) != 0 {
		t.Fatalf("no message captured, yet evidence sent: %v", acts.files)
	}
}

func TestBan_RegistryFailureIsNotFatal(t *testing.T) {
	acts := &fakeActions{present: true}
	rep := &fakeReporter{err: errors.New("registry down")}
	s := newService(acts, rep)

	if err := s.Ban(context.Background(), target(), "Scam Attempt"); err != nil {
		t.Fatalf("Ban should succeed despite registry failure: %v", err)
	}
}

func TestBan_ActionFailurePropagates(t *testing.T) {
	acts := &fakeActions{present: true, banErr: errors.New("missing permissions")}
	s := newService(acts, nil)
	if err := s.Ban(context.Background(), target(), "x"); err == nil {
		t.Fatal("expected error from ban action")
	}
}

func TestKick(t *testing.T) {
	acts := &fakeActions{present: true}
	s := newService(acts, nil)

	if err := s.Kick(context.Background(), target(), "Bot Account"); err != nil {
		t.Fatalf("Kick: %v", err)
	}
	found := false
	for _, sent := range acts.sent {
		if strings.Contains(sent, "**Kicked**\nUID: u-1\nReason: Bot Account") {
			found = true
		}
	}
	if !found {
		t.Fatalf("kick confirmation missing: %v", acts.sent)
	}
}

func TestTimeout_DefaultDuration(t *testing.T) {
	acts := &fakeActions{present: true}
	s := newService(acts, nil)

	if err := s.Timeout(context.Background(), target(), "spam", 0); err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	found := false
	for _, c := range acts.calls {
		if c == "timeout:1m0s" {
			found = true
		}
	}
	if !found {
		t.Fatalf("calls: %v", acts.calls)
	}
}

func TestRenderPanel(t *testing.T) {
	pngBytes, err := RenderPanel(Panel{
		Username: "scammer",
		UID:      "12345",
		Reason:   "Scam Attempt",
		Message:  strings.Repeat("free nitro claim now ", 30),
		Accent:   0x5865F2,
	})
	if err != nil {
		t.Fatalf("RenderPanel: %v", err)
	}
	if len(pngBytes) == 0 {
		t.Fatal("empty png")
	}
	// PNG magic
	if string(pngBytes[1:4]) != "PNG" {
		t.Fatalf("not a png: % x", pngBytes[:8])
	}
}

func TestWrapText(t *testing.T) {
	face := basicfont.Face7x13
	lines := wrapText("one two three four five six seven eight nine ten", face, 100)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if textWidth(face, l) > 100 {
			t.Fatalf("line %q exceeds width", l)
		}
	}
	if got := wrapText("", face, 100); got != nil {
		t.Fatalf("empty text: got %v", got)
	}
}
