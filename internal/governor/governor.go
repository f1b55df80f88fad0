// Package governor bounds how many visualization workers run at once.
//
// Capacity is a fixed set of tokens in a buffered channel. Admit takes a
// token and Release returns it, so the send on release can never block.
package governor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/vizbox/internal/apperror"
)

// Policy decides what happens to a request when all slots are taken.
type Policy string

const (
	// PolicyReject fails the request immediately with a capacity error.
	PolicyReject Policy = "reject"
	// PolicyWait queues the request for up to the configured wait before
	// giving up with a capacity error.
	PolicyWait Policy = "wait"
)

// Governor admits requests into a bounded set of worker slots.
type Governor struct {
	slots     chan struct{}
	policy    Policy
	queueWait time.Duration
	live      atomic.Int64
	logger    *slog.Logger
}

func New(maxWorkers int, policy Policy, queueWait time.Duration, logger *slog.Logger) *Governor {
	g := &Governor{
		slots:     make(chan struct{}, maxWorkers),
		policy:    policy,
		queueWait: queueWait,
		logger:    logger,
	}
	for i := 0; i < maxWorkers; i++ {
		g.slots <- struct{}{}
	}
	return g
}

// Admit claims a worker slot. The caller must call Release on the returned
// slot when the work is done, on every path.
//
// Under PolicyReject a full governor fails immediately. Under PolicyWait
// the call blocks until a slot frees, the queue wait elapses, or ctx is
// done; a context error is returned as-is so callers can distinguish the
// request deadline from exhausted capacity.
func (g *Governor) Admit(ctx context.Context) (*Slot, error) {
	if g.policy == PolicyReject {
		select {
		case <-g.slots:
			return g.claim(), nil
		default:
			g.logger.Debug("admission rejected, all worker slots busy",
				slog.Int64("live", g.live.Load()),
			)
			return nil, apperror.CapacityExceeded()
		}
	}

	var timeout <-chan time.Time
	if g.queueWait > 0 {
		timer := time.NewTimer(g.queueWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-g.slots:
		return g.claim(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		g.logger.Debug("admission timed out waiting for a worker slot",
			slog.Duration("queue_wait", g.queueWait),
		)
		return nil, apperror.CapacityExceeded()
	}
}

// Live reports how many slots are currently claimed.
func (g *Governor) Live() int64 {
	return g.live.Load()
}

func (g *Governor) claim() *Slot {
	g.live.Add(1)
	return &Slot{g: g}
}

// Slot is a claimed worker slot. Release is idempotent; deferred and
// explicit releases of the same slot return only one token.
type Slot struct {
	g    *Governor
	once sync.Once
}

func (s *Slot) Release() {
	s.once.Do(func() {
		s.g.live.Add(-1)
		s.g.slots <- struct{}{}
	})
}
