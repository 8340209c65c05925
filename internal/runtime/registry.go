package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/pkg/domain"
)

// Factory builds a fresh actor for a session the registry has never seen.
type Factory func(sessionID string) (*Actor, error)

// lockEntry holds a per-session mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry owns the live actors, one per session. Creation is idempotent:
// concurrent callers for the same session observe a single actor. Optional
// capacity and idle-TTL limits evict the least recently used sessions.
type Registry struct {
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	actors map[string]*Actor
	locks  map[string]*lockEntry

	capacity int
	idleTTL  time.Duration

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity bounds the number of live actors. When the bound is reached,
// creating a new session evicts the least recently active one. Zero means
// unbounded.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		r.capacity = n
	}
}

// WithIdleTTL evicts actors that received no event for the given duration.
// Zero disables the sweep.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTTL = d
	}
}

// WithRegistryLogger sets a structured logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry backed by the given actor factory.
func NewRegistry(factory Factory, opts ...RegistryOption) *Registry {
	r := &Registry{
		factory:     factory,
		logger:      logging.NewNop(),
		actors:      make(map[string]*Actor),
		locks:       make(map[string]*lockEntry),
		janitorStop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.idleTTL > 0 {
		go r.janitor()
	}
	return r
}

// GetOrCreate returns the actor for the session, creating and starting it on
// first use.
func (r *Registry) GetOrCreate(sessionID string) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.actors[sessionID]; ok {
		return a, nil
	}

	if r.capacity > 0 && len(r.actors) >= r.capacity {
		r.evictOldestLocked()
	}

	a, err := r.factory(sessionID)
	if err != nil {
		return nil, err
	}
	r.actors[sessionID] = a
	r.logger.Info("actor created", "session_id", sessionID, "live", len(r.actors))
	return a, nil
}

// Get returns the live actor for the session, if any.
func (r *Registry) Get(sessionID string) (*Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[sessionID]
	return a, ok
}

// Remove stops and discards the session's actor. Removing an unknown session
// returns ErrSessionNotFound.
func (r *Registry) Remove(sessionID string) error {
	r.mu.Lock()
	a, ok := r.actors[sessionID]
	delete(r.actors, sessionID)
	r.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	a.Stop()
	r.logger.Info("actor removed", "session_id", sessionID)
	return nil
}

// Len reports the number of live actors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// Close stops the janitor and every live actor.
func (r *Registry) Close() {
	r.janitorOnce.Do(func() {
		close(r.janitorStop)
	})

	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		actors = append(actors, a)
	}
	r.actors = make(map[string]*Actor)
	r.mu.Unlock()

	for _, a := range actors {
		a.Stop()
	}
}

// WithLock executes fn while holding the session's serialization lock, so
// turns for one session never interleave. Lock entries are reference counted
// and garbage collected when the last holder releases.
func (r *Registry) WithLock(sessionID string, fn func() error) error {
	entry := r.acquireLock(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.releaseLock(sessionID)
	}()
	return fn()
}

func (r *Registry) acquireLock(sessionID string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.locks[sessionID]
	if !ok {
		entry = &lockEntry{}
		r.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (r *Registry) releaseLock(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.locks[sessionID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, sessionID)
	}
}

// evictOldestLocked drops the least recently active actor. Caller holds r.mu.
func (r *Registry) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, a := range r.actors {
		at := a.LastActivity()
		if oldestID == "" || at.Before(oldestAt) {
			oldestID = id
			oldestAt = at
		}
	}
	if oldestID == "" {
		return
	}

	a := r.actors[oldestID]
	delete(r.actors, oldestID)
	a.Stop()
	r.logger.Info("actor evicted at capacity",
		"session_id", oldestID,
		"idle", time.Since(oldestAt).String(),
	)
}

// janitor sweeps idle actors at half the TTL interval.
func (r *Registry) janitor() {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.janitorStop:
			return
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*Actor
	for id, a := range r.actors {
		if a.LastActivity().Before(cutoff) {
			expired = append(expired, a)
			delete(r.actors, id)
			r.logger.Info("actor evicted after idle timeout", "session_id", id)
		}
	}
	r.mu.Unlock()

	for _, a := range expired {
		a.Stop()
	}
}
