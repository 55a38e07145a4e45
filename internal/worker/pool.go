// Package worker runs background work on a bounded goroutine pool.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/logger"
)

// ErrPoolClosed is returned when submitting to a released pool.
var ErrPoolClosed = errors.New("worker pool is closed")

type Task func(ctx context.Context)

// Pool wraps ants.Pool. Detached tasks run under a service context that is
// cancelled on Shutdown, so they outlive the request that queued them.
type Pool struct {
	pool *ants.Pool
	name string

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

func NewPool(ctx context.Context, name string, size int) (*Pool, error) {
	serviceCtx, serviceCancel := context.WithCancel(ctx)

	panicHandler := func(p any) {
		logger.Error("worker panic recovered",
			zap.String("pool", name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	p, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(10*time.Second),
	)
	if err != nil {
		serviceCancel()
		return nil, err
	}

	return &Pool{
		pool:          p,
		name:          name,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit runs task with the caller's context. A context that is already
// cancelled is returned as an error without queueing anything.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return p.submit(func() {
		select {
		case <-ctx.Done():
			logger.Debug("task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
}

// SubmitDetached runs task with the pool's service context instead of the caller's.
func (p *Pool) SubmitDetached(task Task) error {
	return p.submit(func() {
		select {
		case <-p.serviceCtx.Done():
			logger.Debug("detached task skipped: pool shutting down", zap.String("pool", p.name))
			return
		default:
		}
		task(p.serviceCtx)
	})
}

func (p *Pool) submit(fn func()) error {
	if err := p.pool.Submit(fn); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// Shutdown cancels detached tasks and waits up to timeout for running ones.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.serviceCancel()
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		logger.Warn("worker pool shutdown timeout", zap.String("pool", p.name), zap.Error(err))
	}
}

func (p *Pool) Running() int { return p.pool.Running() }
func (p *Pool) Cap() int     { return p.pool.Cap() }
