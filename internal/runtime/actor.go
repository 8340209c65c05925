// Package runtime executes the conversation graph: one Actor per session,
// a registry owning actor lifecycles, and a collector that waits for a
// dispatched event's cascade to settle.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/internal/machine"
	"github.com/petsaude/iasys/pkg/domain"
)

// maxTransitionChain bounds a single microstep cascade (always transitions
// chained through takes). The graph is validated, so hitting the cap means a
// definition bug; the actor logs and stops cascading instead of spinning.
const maxTransitionChain = 16

// envelope is one mailbox item. Internal envelopes (timer fires, task
// completions) carry the state-entry generation at issue time and are
// discarded when the actor has since moved on.
type envelope struct {
	ev       domain.Event
	gen      uint64
	internal bool
	flush    bool
	flushed  chan struct{}
}

// Actor runs one state machine instance bound to a session. All event
// processing happens on a single goroutine; timers and invoked tasks execute
// out-of-band and deliver their results back through the mailbox.
type Actor struct {
	sessionID string
	def       *machine.Definition
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	pool      pond.Pool

	mailbox  chan envelope
	quit     chan struct{}
	stopOnce sync.Once

	taskCtx    context.Context
	taskCancel context.CancelFunc

	// mu guards the fields below for cross-goroutine snapshots; the loop
	// goroutine is the only writer.
	mu           sync.RWMutex
	current      machine.StateID
	mctx         domain.Context
	lastActivity time.Time

	// gen and timer are only touched on the loop goroutine.
	gen   uint64
	timer *time.Timer

	subMu sync.Mutex
	subs  map[int]chan string
	subID int
}

// ActorOption configures an Actor.
type ActorOption func(*Actor)

// WithActorLogger sets a structured logger.
func WithActorLogger(logger *slog.Logger) ActorOption {
	return func(a *Actor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithActorHooks registers lifecycle hooks.
func WithActorHooks(hooks domain.LifecycleHooks) ActorOption {
	return func(a *Actor) {
		a.hooks = hooks
	}
}

// WithTaskPool runs invoked tasks on a shared worker pool instead of bare
// goroutines.
func WithTaskPool(pool pond.Pool) ActorOption {
	return func(a *Actor) {
		a.pool = pool
	}
}

// NewActor creates and starts an actor at the machine's initial state. The
// initial entry actions (greeting) run before the first event is consumed.
func NewActor(sessionID string, def *machine.Definition, opts ...ActorOption) (*Actor, error) {
	if def == nil || def.State(def.Initial) == nil {
		return nil, domain.ErrMachineDefinition
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	a := &Actor{
		sessionID:    sessionID,
		def:          def,
		logger:       logging.NewNop(),
		mailbox:      make(chan envelope, 16),
		quit:         make(chan struct{}),
		taskCtx:      taskCtx,
		taskCancel:   cancel,
		lastActivity: time.Now(),
		subs:         make(map[int]chan string),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("session_id", sessionID)

	go a.run()
	return a, nil
}

// SessionID returns the owning session identifier.
func (a *Actor) SessionID() string {
	return a.sessionID
}

// CurrentState returns the identifier of the active state.
func (a *Actor) CurrentState() machine.StateID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Context returns a snapshot of the machine context.
func (a *Actor) Context() domain.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c := a.mctx
	c.Responses = append([]string(nil), a.mctx.Responses...)
	return c
}

// LastActivity reports when the actor last received an external event.
func (a *Actor) LastActivity() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastActivity
}

// Dispatch queues one external event for processing in arrival order. Once
// Stop has returned the mailbox is abandoned, so the closed check runs
// before the send: a stopped actor must never silently swallow an event.
func (a *Actor) Dispatch(ev domain.Event) error {
	select {
	case <-a.quit:
		return domain.ErrActorClosed
	default:
	}

	a.mu.Lock()
	a.lastActivity = time.Now()
	a.mu.Unlock()

	select {
	case a.mailbox <- envelope{ev: ev}:
		return nil
	case <-a.quit:
		return domain.ErrActorClosed
	}
}

// Flush clears the response buffer through the mailbox and waits until the
// loop has processed the clear, so a caller that flushed is guaranteed the
// next Subscribe starts from an empty buffer.
func (a *Actor) Flush() {
	done := make(chan struct{})
	select {
	case a.mailbox <- envelope{flush: true, flushed: done}:
	case <-a.quit:
		return
	}
	select {
	case <-done:
	case <-a.quit:
	}
}

// Subscribe registers an observer for assistant messages. It returns the
// messages already buffered (produced while nobody was listening, e.g. the
// greeting emitted at creation), the live channel, and a cancel function.
// The snapshot and the registration share the commit lock, so a message is
// either in the pending slice or delivered live, never both.
func (a *Actor) Subscribe() ([]string, <-chan string, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.mu.RLock()
	pending := append([]string(nil), a.mctx.Responses...)
	a.mu.RUnlock()

	a.subID++
	id := a.subID
	ch := make(chan string, 64)
	a.subs[id] = ch

	cancel := func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
	return pending, ch, cancel
}

// Stop terminates the actor. In-flight task completions and timer fires are
// dropped; pending mailbox events are abandoned.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		close(a.quit)
		a.taskCancel()
	})
}

// run is the actor loop: the single writer of state and context.
func (a *Actor) run() {
	a.enter(a.def.Initial, domain.Event{}, 0)

	for {
		select {
		case env := <-a.mailbox:
			a.handle(env)
		case <-a.quit:
			a.stopTimer()
			return
		}
	}
}

func (a *Actor) handle(env envelope) {
	if env.flush {
		a.mu.Lock()
		a.mctx.Responses = nil
		a.mu.Unlock()
		if env.flushed != nil {
			close(env.flushed)
		}
		return
	}

	if env.internal && env.gen != a.gen {
		// The actor left the issuing state via another path. Late timer
		// fires and stale task completions must not be applied.
		a.logger.Debug("dropping stale internal event",
			"event", env.ev.Type,
			"issued_gen", env.gen,
			"current_gen", a.gen,
		)
		return
	}

	a.step(env.ev)
}

// step performs one microstep: resolve the transition for (state, event) and
// take it. Unhandled events are a silent no-op by contract.
func (a *Actor) step(ev domain.Event) {
	st := a.def.State(a.current)
	tr, ok := st.Select(a.mctx, ev)
	if !ok {
		return
	}
	a.take(st, tr, ev, 0)
}

// take runs exit logic for the current state, applies the transition's
// actions and enters the target.
func (a *Actor) take(from *machine.State, tr machine.Transition, ev domain.Event, depth int) {
	if depth >= maxTransitionChain {
		a.logger.Error("transition chain exceeded limit, stopping cascade",
			"state", a.current,
			"event", ev.Type,
		)
		return
	}

	a.exitState(from, ev)

	next := a.mctx
	before := len(next.Responses)
	for _, act := range tr.Actions {
		next = act(next, ev)
	}
	a.commit(next, before, from)

	a.enter(tr.Target, ev, depth+1)
}

func (a *Actor) exitState(st *machine.State, ev domain.Event) {
	a.stopTimer()
	a.gen++

	if a.hooks.OnStateLeave != nil {
		a.hooks.OnStateLeave(a.taskCtx, &domain.StateEvent{
			HookBase: hookBase(domain.HookStateLeave, a.sessionID),
			StateID:  string(st.ID),
			Trigger:  ev.Type,
		})
	}
}

// enter activates a state: entry actions, response publication, `always`
// routing, timer arming and task invocation, in that order.
func (a *Actor) enter(id machine.StateID, ev domain.Event, depth int) {
	a.setState(id)
	st := a.def.State(id)

	a.logger.Debug("state entered", "state", id, "event", ev.Type)
	if a.hooks.OnStateEnter != nil {
		a.hooks.OnStateEnter(a.taskCtx, &domain.StateEvent{
			HookBase: hookBase(domain.HookStateEnter, a.sessionID),
			StateID:  string(id),
			Trigger:  ev.Type,
		})
	}

	if st.Entry != nil {
		before := len(a.mctx.Responses)
		a.commit(st.Entry(a.mctx, ev), before, st)
	}

	if tr, ok := st.SelectAlways(a.mctx, ev); ok {
		a.take(st, tr, ev, depth)
		return
	}

	if st.After != nil {
		a.armTimer(st.After)
	}
	if st.Invoke != nil {
		a.startTask(st)
	}
}

func (a *Actor) armTimer(d *machine.Delayed) {
	gen := a.gen
	a.timer = time.AfterFunc(d.Delay, func() {
		a.deliver(envelope{ev: domain.Event{Type: domain.EventTimer}, gen: gen, internal: true})
	})
}

func (a *Actor) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// startTask launches the state's invoked task out-of-band. The completion is
// delivered back through the mailbox tagged with the current generation.
func (a *Actor) startTask(st *machine.State) {
	task := st.Invoke
	fn := a.def.Tasks[task.Name]
	input := task.Input(a.mctx)
	gen := a.gen

	if a.hooks.OnTaskStart != nil {
		a.hooks.OnTaskStart(a.taskCtx, &domain.TaskEvent{
			HookBase: hookBase(domain.HookTaskStart, a.sessionID),
			StateID:  string(st.ID),
			TaskName: task.Name,
		})
	}

	exec := func() {
		start := time.Now()
		out, err := fn(a.taskCtx, input)

		if a.hooks.OnTaskDone != nil {
			a.hooks.OnTaskDone(a.taskCtx, &domain.TaskEvent{
				HookBase: hookBase(domain.HookTaskDone, a.sessionID),
				StateID:  string(st.ID),
				TaskName: task.Name,
				Duration: time.Since(start),
				IsError:  err != nil,
			})
		}

		if err != nil {
			a.logger.Warn("invoked task failed", "task", task.Name, "err", err)
			a.deliver(envelope{ev: domain.Event{Type: domain.EventTaskError, Text: err.Error()}, gen: gen, internal: true})
			return
		}
		a.deliver(envelope{ev: domain.Event{Type: domain.EventTaskDone, Text: out}, gen: gen, internal: true})
	}

	if a.pool != nil {
		if err := a.pool.Go(exec); err == nil {
			return
		}
		a.logger.Warn("task pool rejected submission, running inline goroutine", "task", task.Name)
	}
	go exec()
}

// deliver feeds an internal completion back into the serialized mailbox.
func (a *Actor) deliver(env envelope) {
	select {
	case a.mailbox <- env:
	case <-a.quit:
	}
}

// commit installs next as the machine context and fans any responses
// appended past before out to subscribers. Both happen under the
// subscription lock, so a concurrent Subscribe sees each message exactly
// once: in its pending snapshot or on the live channel. Slow subscribers
// lose messages rather than blocking the actor; the response buffer still
// holds everything until the next flush.
func (a *Actor) commit(next domain.Context, before int, st *machine.State) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.setContext(next)

	msgs := next.Responses[before:]
	if len(msgs) == 0 {
		return
	}

	if a.hooks.OnResponse != nil {
		a.hooks.OnResponse(a.taskCtx, &domain.ResponseEvent{
			HookBase: hookBase(domain.HookResponse, a.sessionID),
			StateID:  string(st.ID),
			Count:    len(msgs),
		})
	}

	for _, ch := range a.subs {
		for _, msg := range msgs {
			select {
			case ch <- msg:
			default:
				a.logger.Warn("subscriber buffer full, dropping response")
			}
		}
	}
}

func (a *Actor) setState(id machine.StateID) {
	a.mu.Lock()
	a.current = id
	a.mu.Unlock()
}

func (a *Actor) setContext(c domain.Context) {
	a.mu.Lock()
	a.mctx = c
	a.mu.Unlock()
}

func hookBase(t domain.HookEventType, sessionID string) domain.HookBase {
	return domain.HookBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: sessionID,
	}
}
