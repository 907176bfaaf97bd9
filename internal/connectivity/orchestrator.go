// Package connectivity watches remote reachability and turns offline→online
// transitions into queue drains: exactly one drain per reconnection, guarded
// against concurrent triggers.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
	"github.com/rutero-app/fieldsync/internal/syncer"
)

// Orchestrator probes the remote health endpoint on a ticker. It waits for
// the store schema before the first probe, flips the transition callback on
// every reachability change, and triggers the sync manager once per
// offline→online transition. The drained guard resets when connectivity
// drops, permitting one further drain on the next reconnection.
type Orchestrator struct {
	store        *store.Store
	remote       remote.Service
	manager      *syncer.Manager
	log          logging.Logger
	interval     time.Duration
	onTransition func(online bool)

	mu      sync.Mutex
	online  bool
	drained bool
}

// New constructs an Orchestrator. onTransition may be nil; when set it is
// called on every reachability change, before any drain.
func New(s *store.Store, svc remote.Service, m *syncer.Manager, log logging.Logger,
	interval time.Duration, onTransition func(online bool)) *Orchestrator {
	return &Orchestrator{
		store:        s,
		remote:       svc,
		manager:      m,
		log:          log,
		interval:     interval,
		onTransition: onTransition,
	}
}

// Run blocks until ctx is cancelled: it waits for the store ready gate,
// probes immediately, then keeps probing on the configured interval.
func (o *Orchestrator) Run(ctx context.Context) error {
	select {
	case <-o.store.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	o.probe(ctx)

	t := time.NewTicker(o.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			o.probe(ctx)
		}
	}
}

// Online reports the last observed reachability.
func (o *Orchestrator) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

func (o *Orchestrator) probe(ctx context.Context) {
	err := o.remote.Health(ctx)
	if err != nil {
		o.log.Debug(ctx, "health probe failed", "error", err)
	}
	o.setOnline(ctx, err == nil)
}

// setOnline applies one observed reachability sample. The drained flag is
// claimed under the mutex before the drain runs, so concurrent samples
// cannot double-drain.
func (o *Orchestrator) setOnline(ctx context.Context, online bool) {
	o.mu.Lock()
	changed := online != o.online
	o.online = online
	if !online {
		o.drained = false
	}
	shouldDrain := online && !o.drained
	if shouldDrain {
		o.drained = true
	}
	o.mu.Unlock()

	if changed {
		o.log.Info(ctx, "connectivity changed", "online", online)
		if o.onTransition != nil {
			o.onTransition(online)
		}
		o.manager.RefreshPending(ctx)
	}

	if shouldDrain {
		if _, err := o.manager.Drain(ctx); err != nil {
			o.log.Error(ctx, "drain failed", "error", err)
		}
	}
}
