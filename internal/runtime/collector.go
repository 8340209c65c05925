package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/petsaude/iasys/internal/logging"
	"github.com/petsaude/iasys/pkg/domain"
)

const (
	// DefaultQuietWindow is how long the actor must stay silent after its
	// last message before the turn is considered settled. It must exceed
	// every delayed transition in the graph, otherwise auto-advance
	// messages land after the reply was already returned.
	DefaultQuietWindow = 1 * time.Second

	// DefaultCeiling caps the total wait for one turn regardless of how
	// long the cascade keeps producing messages.
	DefaultCeiling = 10 * time.Second
)

// Collector dispatches one event to an actor and gathers every assistant
// message the resulting cascade produces, returning once the actor has been
// quiet for the configured window.
type Collector struct {
	quietWindow time.Duration
	ceiling     time.Duration
	logger      *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithQuietWindow overrides the silence window.
func WithQuietWindow(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.quietWindow = d
		}
	}
}

// WithCeiling overrides the total wait cap.
func WithCeiling(d time.Duration) CollectorOption {
	return func(c *Collector) {
		if d > 0 {
			c.ceiling = d
		}
	}
}

// WithCollectorLogger sets a structured logger.
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollector creates a collector with the default windows.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		quietWindow: DefaultQuietWindow,
		ceiling:     DefaultCeiling,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect sends ev to the actor and returns the batch of assistant messages
// for this turn, in production order. Messages buffered before the call
// (the greeting of a freshly created actor) lead the batch. The response
// buffer is flushed once the batch is taken, so each message is returned to
// the caller exactly once.
func (c *Collector) Collect(ctx context.Context, a *Actor, ev domain.Event) ([]string, error) {
	pending, ch, cancel := a.Subscribe()
	defer cancel()

	if err := a.Dispatch(ev); err != nil {
		return nil, err
	}

	out := append([]string(nil), pending...)

	quiet := time.NewTimer(c.quietWindow)
	defer quiet.Stop()
	deadline := time.NewTimer(c.ceiling)
	defer deadline.Stop()

	for {
		select {
		case msg := <-ch:
			out = append(out, msg)
			if !quiet.Stop() {
				select {
				case <-quiet.C:
				default:
				}
			}
			quiet.Reset(c.quietWindow)

		case <-quiet.C:
			a.Flush()
			return out, nil

		case <-deadline.C:
			c.logger.Warn("collection ceiling reached, returning partial batch",
				"session_id", a.SessionID(),
				"messages", len(out),
			)
			a.Flush()
			return out, nil

		case <-ctx.Done():
			a.Flush()
			return out, ctx.Err()
		}
	}
}
