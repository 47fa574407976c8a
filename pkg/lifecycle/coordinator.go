// Package lifecycle coordinates graceful shutdown: stop taking work, drain
// what is in flight, then close resources in registration order.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ghuser/budgetly/pkg/logger"
)

// DefaultPollInterval is how often the in-flight count is checked while draining.
const DefaultPollInterval = 100 * time.Millisecond

// Drainer is a source of work that can stop accepting new items and report
// how many are still running.
type Drainer interface {
	Stop()
	InFlight() int64
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// Coordinator runs the shutdown sequence once:
//  1. Stop every registered Drainer
//  2. Poll InFlight until all reach zero or the timeout elapses
//  3. Run closers in the order they were registered
//
// A timeout is logged and shutdown continues; it never hangs forever.
type Coordinator struct {
	log          logger.Logger
	timeout      time.Duration
	pollInterval time.Duration

	mu       sync.Mutex
	drainers []Drainer
	closers  []closer

	once sync.Once
	done chan struct{}
}

// New returns a Coordinator that waits at most timeout for in-flight work.
func New(log logger.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{
		log:          log,
		timeout:      timeout,
		pollInterval: DefaultPollInterval,
		done:         make(chan struct{}),
	}
}

// Drain registers d to be stopped and drained before any closer runs.
func (c *Coordinator) Drain(d Drainer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drainers = append(c.drainers, d)
}

// OnShutdown registers fn to run after draining. Closers run in registration
// order, so register the HTTP server, then the broker, then the database.
func (c *Coordinator) OnShutdown(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, closer{name: name, fn: fn})
}

// Done is closed once Shutdown has finished.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Shutdown runs the sequence. Concurrent and repeated calls do not restart
// it; they wait for the first run to finish (or ctx to end).
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.once.Do(func() {
		go func() {
			defer close(c.done)
			c.run(context.WithoutCancel(ctx))
		}()
	})
	select {
	case <-c.done:
	case <-ctx.Done():
	}
}

func (c *Coordinator) run(ctx context.Context) {
	c.mu.Lock()
	drainers := append([]Drainer(nil), c.drainers...)
	closers := append([]closer(nil), c.closers...)
	c.mu.Unlock()

	c.log.InfoContext(ctx, "lifecycle: shutting down", "timeout", c.timeout)

	for _, d := range drainers {
		d.Stop()
	}
	if remaining := c.drain(drainers); remaining > 0 {
		c.log.WarnContext(ctx, "lifecycle: drain timed out, closing with handlers still running",
			"in_flight", remaining,
		)
	}

	closeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	for _, cl := range closers {
		if err := cl.fn(closeCtx); err != nil {
			c.log.ErrorContext(ctx, "lifecycle: close failed", "resource", cl.name, "error", err)
			continue
		}
		c.log.InfoContext(ctx, "lifecycle: closed", "resource", cl.name)
	}
	c.log.InfoContext(ctx, "lifecycle: shutdown complete")
}

// drain polls until no drainer has work in flight or the timeout elapses.
// It returns the in-flight total at exit.
func (c *Coordinator) drain(drainers []Drainer) int64 {
	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		total := inFlight(drainers)
		if total == 0 {
			return 0
		}
		select {
		case <-deadline.C:
			return inFlight(drainers)
		case <-ticker.C:
		}
	}
}

func inFlight(drainers []Drainer) int64 {
	var n int64
	for _, d := range drainers {
		n += d.InFlight()
	}
	return n
}

// WaitForSignal blocks until SIGINT or SIGTERM (or ctx ends), then runs
// Shutdown. Signals arriving while shutdown is in progress are ignored.
func (c *Coordinator) WaitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		c.log.Info("lifecycle: signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	go func() {
		for {
			select {
			case sig := <-sigCh:
				c.log.Warn("lifecycle: shutdown already in progress, ignoring signal", "signal", sig.String())
			case <-c.done:
				return
			}
		}
	}()
	c.Shutdown(context.Background())
}
