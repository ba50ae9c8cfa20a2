// Package common holds execution infrastructure shared by the intelligence
// packages: a bounded, order-preserving worker pool that reports resource
// exhaustion so callers can fall back to sequential execution.
package common

import (
	"context"
	stderrors "errors"
	"runtime"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// -----------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	maxConcurrency   int
	goroutineCeiling int
	logger           logging.Logger
}

// WithMaxConcurrency bounds the number of items processed at once.
// Values below 1 fall back to runtime.NumCPU().
func WithMaxConcurrency(n int) PoolOption {
	return func(c *poolConfig) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithGoroutineCeiling makes Run refuse to start when the process already
// runs at least n goroutines.  Zero disables the check.
func WithGoroutineCeiling(n int) PoolOption {
	return func(c *poolConfig) {
		if n >= 0 {
			c.goroutineCeiling = n
		}
	}
}

// WithPoolLogger sets the pool logger.
func WithPoolLogger(l logging.Logger) PoolOption {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// -----------------------------------------------------------------------
// Pool
// -----------------------------------------------------------------------

// Executor runs fn for every index in [0, n).  Implementations may run the
// calls concurrently; fn must only write state owned by its index.
type Executor interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Pool is a bounded worker pool.  It is stateless between calls and safe for
// concurrent use.
type Pool struct {
	cfg poolConfig
}

// NewPool creates a Pool.
func NewPool(opts ...PoolOption) *Pool {
	cfg := poolConfig{
		maxConcurrency: runtime.NumCPU(),
		logger:         logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Pool{cfg: cfg}
}

// Concurrency returns the configured worker bound.
func (p *Pool) Concurrency() int { return p.cfg.maxConcurrency }

// Run executes fn for every index with at most Concurrency calls in flight.
// The first error cancels the context handed to the remaining calls and is
// returned.  Resource exhaustion, whether detected up front or reported by a
// worker, is returned as an ErrCodeResourceExhausted error.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if ceiling := p.cfg.goroutineCeiling; ceiling > 0 {
		if live := runtime.NumGoroutine(); live >= ceiling {
			p.cfg.logger.Warn("worker pool refused to start",
				logging.Int("goroutines", live),
				logging.Int("ceiling", ceiling))
			return errors.ResourceExhausted("goroutine ceiling reached").
				WithDetail("ceiling=" + strconv.Itoa(ceiling))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.maxConcurrency)
	for i := 0; i < n; i++ {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil && IsResourceExhaustion(err) && !errors.IsResourceExhausted(err) {
		return errors.ResourceExhausted("worker failed to acquire resources").WithCause(err)
	}
	return err
}

// Map applies fn to every item through p and returns the results in input
// order.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sequential is an Executor that runs every index on the calling goroutine.
type Sequential struct{}

// Run implements Executor.
func (Sequential) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// IsResourceExhaustion reports whether err means the process could not get
// the threads, descriptors or memory a parallel run needs.
func IsResourceExhaustion(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsResourceExhausted(err) {
		return true
	}
	return stderrors.Is(err, syscall.EMFILE) ||
		stderrors.Is(err, syscall.ENFILE) ||
		stderrors.Is(err, syscall.EAGAIN) ||
		stderrors.Is(err, syscall.ENOMEM)
}

//Personal.AI order the ending
