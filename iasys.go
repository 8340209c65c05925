package iasys

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"

	"github.com/petsaude/iasys/internal/adapters/memory"
	"github.com/petsaude/iasys/internal/catalog"
	"github.com/petsaude/iasys/internal/classify"
	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/internal/machine"
	"github.com/petsaude/iasys/internal/runtime"
	"github.com/petsaude/iasys/pkg/domain"
	"github.com/petsaude/iasys/pkg/ports"
)

// Assistant is the high-level entry point: it owns the conversation graph,
// the per-session actors and the transcript store, and turns one user
// message into one batch of replies.
type Assistant struct {
	def       *machine.Definition
	registry  *runtime.Registry
	collector *runtime.Collector
	history   ports.HistoryStore
	logger    *slog.Logger

	completer ports.Completer
	catalog   ports.VaccinationCatalog
	hooks     domain.LifecycleHooks
	now       func() time.Time

	quietWindow    time.Duration
	collectCeiling time.Duration
	advanceDelay   time.Duration
	maxSessions    int
	idleTTL        time.Duration
	taskWorkers    int

	pool pond.Pool
}

// Option configures the Assistant.
type Option func(*Assistant)

// WithCompleter sets the text-completion backend used by the analysis
// states. Without one, every analysis routes through its error path.
func WithCompleter(c ports.Completer) Option {
	return func(a *Assistant) {
		a.completer = c
	}
}

// WithHistoryStore sets the transcript store (default: in-memory).
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(a *Assistant) {
		if store != nil {
			a.history = store
		}
	}
}

// WithCatalog overrides the vaccination reference catalog.
func WithCatalog(c ports.VaccinationCatalog) Option {
	return func(a *Assistant) {
		if c != nil {
			a.catalog = c
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assistant) {
		a.hooks = hooks
	}
}

// WithQuietWindow sets the silence window that closes a reply batch.
func WithQuietWindow(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.quietWindow = d
		}
	}
}

// WithCollectCeiling caps the total wait for one reply batch.
func WithCollectCeiling(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.collectCeiling = d
		}
	}
}

// WithAdvanceDelay paces the automatic transitions out of advice states.
func WithAdvanceDelay(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.advanceDelay = d
		}
	}
}

// WithMaxSessions bounds the number of live conversation actors.
func WithMaxSessions(n int) Option {
	return func(a *Assistant) {
		a.maxSessions = n
	}
}

// WithSessionIdleTTL evicts sessions idle for longer than d.
func WithSessionIdleTTL(d time.Duration) Option {
	return func(a *Assistant) {
		a.idleTTL = d
	}
}

// WithTaskWorkers sizes the shared pool running invoked tasks.
func WithTaskWorkers(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.taskWorkers = n
		}
	}
}

// WithClock injects the clock used by date validation (tests freeze it).
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// New assembles an Assistant.
func New(opts ...Option) (*Assistant, error) {
	a := &Assistant{
		history:        memory.NewStore(),
		catalog:        catalog.New(),
		logger:         logging.NewNop(),
		now:            time.Now,
		quietWindow:    runtime.DefaultQuietWindow,
		collectCeiling: runtime.DefaultCeiling,
		advanceDelay:   machine.DefaultAdvanceDelay,
		taskWorkers:    32,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.completer == nil {
		a.completer = unavailableCompleter{}
	}
	if a.quietWindow <= a.advanceDelay {
		return nil, errors.New("iasys: quiet window must exceed the advance delay")
	}

	def, err := machine.Build(machine.Deps{
		Completer:    a.completer,
		Catalog:      a.catalog,
		Now:          a.now,
		AdvanceDelay: a.advanceDelay,
	})
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	a.def = def

	a.pool = pond.NewPool(a.taskWorkers)

	factory := func(sessionID string) (*runtime.Actor, error) {
		return runtime.NewActor(sessionID, a.def,
			runtime.WithActorLogger(a.logger),
			runtime.WithActorHooks(a.hooks),
			runtime.WithTaskPool(a.pool),
		)
	}
	regOpts := []runtime.RegistryOption{runtime.WithRegistryLogger(a.logger)}
	if a.maxSessions > 0 {
		regOpts = append(regOpts, runtime.WithCapacity(a.maxSessions))
	}
	if a.idleTTL > 0 {
		regOpts = append(regOpts, runtime.WithIdleTTL(a.idleTTL))
	}
	a.registry = runtime.NewRegistry(factory, regOpts...)

	a.collector = runtime.NewCollector(
		runtime.WithQuietWindow(a.quietWindow),
		runtime.WithCeiling(a.collectCeiling),
		runtime.WithCollectorLogger(a.logger),
	)

	return a, nil
}

// Handle processes one user message for the session and returns the session
// ID that was used plus the assistant's replies for this turn. An empty
// sessionID mints a new session, whose reply batch opens with the greeting.
// Turns for the same session are serialized; turns for different sessions
// run concurrently.
func (a *Assistant) Handle(ctx context.Context, sessionID, message string) (string, []string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var replies []string
	err := a.registry.WithLock(sessionID, func() error {
		actor, err := a.registry.GetOrCreate(sessionID)
		if err != nil {
			return err
		}

		evType := classify.Classify(message, string(actor.CurrentState()))
		ev := domain.Event{Type: evType, Text: message}
		// Best effort: the transcript rides along for task prompts, the
		// machine itself never branches on it.
		if past, err := a.history.History(ctx, sessionID); err == nil {
			ev.History = past
		}

		replies, err = a.collector.Collect(ctx, actor, ev)
		if err != nil {
			return err
		}

		a.record(ctx, sessionID, message, replies)

		// A finished conversation frees its actor; the transcript stays
		// until the session is explicitly ended.
		if st := a.def.State(actor.CurrentState()); st != nil && st.Final {
			if err := a.registry.Remove(sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				a.logger.Warn("failed to remove finished session", "session_id", sessionID, "err", err)
			}
		}
		return nil
	})
	if err != nil {
		return sessionID, nil, err
	}
	return sessionID, replies, nil
}

// record appends the turn to the transcript. Transcript failures are logged,
// not returned: the user already has their reply.
func (a *Assistant) record(ctx context.Context, sessionID, message string, replies []string) {
	turn := make([]domain.ChatMessage, 0, len(replies)+1)
	if message != "" {
		turn = append(turn, domain.ChatMessage{Role: domain.RoleUser, Content: message})
	}
	for _, reply := range replies {
		turn = append(turn, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	}
	if err := a.history.Append(ctx, sessionID, turn...); err != nil {
		a.logger.Warn("failed to record transcript", "session_id", sessionID, "err", err)
	}
}

// History returns the session transcript, oldest first.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	return a.history.History(ctx, sessionID)
}

// EndSession stops the session's actor and deletes its transcript. Ending a
// session that has neither returns ErrSessionNotFound.
func (a *Assistant) EndSession(ctx context.Context, sessionID string) error {
	removeErr := a.registry.Remove(sessionID)

	history, err := a.history.History(ctx, sessionID)
	if err != nil {
		return err
	}
	if errors.Is(removeErr, domain.ErrSessionNotFound) && len(history) == 0 {
		return domain.ErrSessionNotFound
	}
	return a.history.Delete(ctx, sessionID)
}

// Sessions reports the number of live conversation actors.
func (a *Assistant) Sessions() int {
	return a.registry.Len()
}

// Close stops every actor and the task pool.
func (a *Assistant) Close() {
	a.registry.Close()
	a.pool.StopAndWait()
}

// unavailableCompleter is the fallback when no completion backend is
// configured: every analysis state takes its error route.
type unavailableCompleter struct{}

func (unavailableCompleter) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	return "", errors.New("no completion backend configured")
}
