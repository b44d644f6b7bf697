package pipeline

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate serializes dispatch phases across concurrent runs and throttles the
// capability calls made inside the held window. The extraction backends crash
// under concurrent invocation, so only one run may dispatch at a time; the
// rate limiter additionally spaces out calls within that window.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGate builds the process-wide admission gate. callsPerSecond <= 0 disables
// throttling inside the window.
func NewGate(callsPerSecond float64, burst int) *Gate {
	limit := rate.Inf
	if callsPerSecond > 0 {
		limit = rate.Limit(callsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Gate{
		sem:     semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Acquire blocks until the gate is free or ctx is done. Callers must Release
// exactly once after a successful Acquire.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *Gate) Release() {
	g.sem.Release(1)
}

// WaitBackend blocks until the next capability call is allowed to start.
func (g *Gate) WaitBackend(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
