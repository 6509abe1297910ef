// Package sensor runs the long-lived adapter connections that feed the
// ingestion path. Adapters are external producers (vision, audio, chat); the
// runner owns their lifecycle and reconnect policy.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peepingotter/director/internal/types"
)

// Event is one raw occurrence handed to the ingestion path.
type Event struct {
	Source types.Source
	Text   string
	Meta   types.EventMeta
}

// Adapter is one sensor connection. Run blocks, emitting events until the
// connection drops (return an error) or ctx is canceled (return ctx.Err()).
type Adapter interface {
	Name() string
	Run(ctx context.Context, emit func(Event)) error
}

// Config holds the reconnect policy.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the production reconnect policy.
func DefaultConfig() Config {
	return Config{
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Runner supervises a set of adapters, restarting each with growing backoff
// when its connection drops.
type Runner struct {
	cfg  Config
	emit func(Event)

	mu       sync.Mutex
	adapters []Adapter
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRunner creates a runner delivering events to emit.
func NewRunner(cfg Config, emit func(Event)) *Runner {
	return &Runner{cfg: cfg, emit: emit}
}

// Register adds an adapter. Must be called before Start.
func (r *Runner) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, a)
}

// Start launches one supervised goroutine per adapter.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, r.cancel = context.WithCancel(ctx)
	for _, a := range r.adapters {
		r.wg.Add(1)
		go func(a Adapter) {
			defer r.wg.Done()
			r.supervise(ctx, a)
		}(a)
	}
}

// Stop cancels all adapters and waits for them with a bounded timeout.
// Sensors stop before the decision loops so no events arrive mid-shutdown.
func (r *Runner) Stop(timeout time.Duration) {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		fmt.Printf("[sensor] timeout waiting for adapters to stop\n")
	}
}

func (r *Runner) supervise(ctx context.Context, a Adapter) {
	backoff := r.cfg.InitialBackoff
	for {
		err := a.Run(ctx, r.emit)
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		if err != nil {
			fmt.Printf("[sensor] %s dropped: %v (reconnecting in %v)\n", a.Name(), err, backoff)
		} else {
			// A clean return outside shutdown still gets restarted.
			fmt.Printf("[sensor] %s exited, restarting in %v\n", a.Name(), backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > r.cfg.MaxBackoff {
			backoff = r.cfg.MaxBackoff
		}
	}
}

// ChannelAdapter adapts a plain event channel into an Adapter, for tests and
// for in-process producers like the console.
type ChannelAdapter struct {
	AdapterName string
	Events      <-chan Event
}

// Name implements Adapter.
func (c *ChannelAdapter) Name() string {
	return c.AdapterName
}

// Run implements Adapter.
func (c *ChannelAdapter) Run(ctx context.Context, emit func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.Events:
			if !ok {
				return fmt.Errorf("event channel closed")
			}
			emit(ev)
		}
	}
}
