// Package dispatch buffers inbound events and feeds them to handlers
// one actor at a time. Events for the same actor are handled in arrival
// order; the per-actor locks keep enforcement from racing analysis when
// other goroutines act on the same actor.
package dispatch

import (
	"context"
	"sync"
	"time"

	"scamwatch/internal/platform/cache"
	"scamwatch/internal/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultQueueSize    = 1024
	defaultLockCapacity = 4096
)

// Event is one unit of work for the pipeline
type Event struct {
	// ID correlates log lines across the pipeline; assigned at Submit
	ID          string
	Kind        string
	GuildID     string
	ActorID     string
	Username    string
	DisplayName string
	AvatarURL   string
	ChannelID   string
	MessageID   string
	Text        string
	ReceivedAt  time.Time
}

// Handler processes one event. Handlers run serialized per actor and
// must honor ctx cancellation
type Handler func(ctx context.Context, ev Event)

// Config sizes the dispatcher
type Config struct {
	// QueueSize bounds the inbound buffer; 0 means 1024
	QueueSize int
	// LockCapacity bounds the per-actor lock table; 0 means 4096.
	// Locks currently held are never evicted
	LockCapacity int
}

// Dispatcher owns the queue, the lock table, and the handler registry.
// The registry is fixed at construction; there is no runtime
// registration
type Dispatcher struct {
	queue    chan Event
	locks    *cache.LRU[*sync.Mutex]
	handlers map[string]Handler
	log      logger.Logger
}

// New creates a Dispatcher with a static handler table keyed by event
// kind. Events with an unregistered kind are dropped with a warning
func New(cfg Config, handlers map[string]Handler) *Dispatcher {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	capacity := cfg.LockCapacity
	if capacity <= 0 {
		capacity = defaultLockCapacity
	}

	locks := cache.NewLRU[*sync.Mutex](capacity, 0)
	locks.SetEvictGuard(func(m *sync.Mutex) bool {
		if m.TryLock() {
			m.Unlock()
			return true
		}
		return false
	})

	return &Dispatcher{
		queue:    make(chan Event, size),
		locks:    locks,
		handlers: handlers,
		log:      *logger.Named("dispatch"),
	}
}

// Submit enqueues an event without blocking. When the queue is full the
// event is dropped; stalling the gateway loop is worse than losing one
// screening
func (d *Dispatcher) Submit(ev Event) bool {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	select {
	case d.queue <- ev:
		return true
	default:
		d.log.Warn().Str("kind", ev.Kind).Str("actor_id", ev.ActorID).Msg("queue full, event dropped")
		return false
	}
}

// Run consumes the queue until ctx is canceled. Events are handled in
// arrival order, so per-actor ordering holds by construction; the actor
// lock is still taken for the duration of the handler
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	h, ok := d.handlers[ev.Kind]
	if !ok {
		d.log.Warn().Str("kind", ev.Kind).Msg("no handler for event kind")
		return
	}

	mu := d.actorLock(ev.ActorID)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Interface("panic", r).
				Str("event_id", ev.ID).
				Str("kind", ev.Kind).
				Str("actor_id", ev.ActorID).
				Msg("handler panicked")
		}
	}()

	h(logger.WithEvent(ctx, ev.GuildID, ev.ActorID), ev)
}

// actorLock returns the actor's lock, creating it if needed
func (d *Dispatcher) actorLock(actorID string) *sync.Mutex {
	return d.locks.GetOrAdd(actorID, func() *sync.Mutex { return &sync.Mutex{} })
}
