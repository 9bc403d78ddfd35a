package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"scamwatch/internal/platform/testkit"
)

func TestDispatch_PerActorOrder(t *testing.T) {
	var mu sync.Mutex
	got := map[string][]string{}

	d := New(Config{}, map[string]Handler{
		"message": func(_ context.Context, ev Event) {
			mu.Lock()
			got[ev.ActorID] = append(got[ev.ActorID], ev.Text)
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for i, text := range []string{"one", "two", "three", "four"} {
		actor := "a"
		if i%2 == 1 {
			actor = "b"
		}
		if !d.Submit(Event{Kind: "message", ActorID: actor, Text: text}) {
			t.Fatalf("submit %q rejected", text)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got["a"])+len(got["b"]) == 4
	})
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if got["a"][0] != "one" || got["a"][1] != "three" {
		t.Fatalf("actor a order: %v", got["a"])
	}
	if got["b"][0] != "two" || got["b"][1] != "four" {
		t.Fatalf("actor b order: %v", got["b"])
	}
}

func TestDispatch_UnknownKindDropped(t *testing.T) {
	called := make(chan struct{}, 1)
	d := New(Config{}, map[string]Handler{
		"known": func(context.Context, Event) { called <- struct{}{} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Submit(Event{Kind: "mystery", ActorID: "a"})
	d.Submit(Event{Kind: "known", ActorID: "a"})

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("known handler never ran")
	}
}

func TestDispatch_PanicRecovered(t *testing.T) {
	calls := make(chan string, 2)
	d := New(Config{}, map[string]Handler{
		"message": func(_ context.Context, ev Event) {
			if ev.Text == "boom" {
				panic("handler exploded")
			}
			calls <- ev.Text
		},
	})

	// the panic must be swallowed inside handle, not surface to the consumer
	testkit.MustNotPanic(t, func() {
		d.handle(context.Background(), Event{Kind: "message", ActorID: "a", Text: "boom"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Submit(Event{Kind: "message", ActorID: "a", Text: "after"})

	select {
	case got := <-calls:
		if got != "after" {
			t.Fatalf("got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not survive the panic")
	}
}

func TestDispatch_FullQueueRejects(t *testing.T) {
	d := New(Config{QueueSize: 1}, map[string]Handler{})
	// no consumer running

	if !d.Submit(Event{Kind: "message", ActorID: "a"}) {
		t.Fatal("first submit should fit")
	}
	if d.Submit(Event{Kind: "message", ActorID: "a"}) {
		t.Fatal("second submit should be rejected, not block")
	}
}

func TestDispatch_LockSharedWithHandlers(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	d := New(Config{}, map[string]Handler{
		"message": func(context.Context, Event) {
			close(entered)
			<-release
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Submit(Event{Kind: "message", ActorID: "a"})
	<-entered

	if d.actorLock("a").TryLock() {
		d.actorLock("a").Unlock()
		t.Fatal("actor lock should be held while the handler runs")
	}
	close(release)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
