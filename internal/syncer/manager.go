// Package syncer drives replay of the durable mutation queue against the
// remote service. A drain works on a snapshot of the pending entries:
// entries enqueued while a drain is running wait for the next one. Replay
// is strictly sequential; a failing entry is logged, keeps its PENDING
// status with updated retry bookkeeping, and never blocks the entries
// behind it.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/retryx"
	"github.com/rutero-app/fieldsync/internal/store"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// Manager replays queued mutations. One drain runs at a time; concurrent
// callers serialize behind the mutex.
type Manager struct {
	store   *store.Store
	remote  remote.Service
	log     logging.Logger
	counter *Counter

	attempts  int
	baseDelay time.Duration
	spoolDir  string

	mu sync.Mutex
}

// New constructs a Manager. attempts and baseDelay parameterize the bounded
// linear-backoff retry around every remote call; spoolDir receives the
// temporary attachment materializations during payment-create replay.
func New(s *store.Store, svc remote.Service, log logging.Logger, counter *Counter,
	attempts int, baseDelay time.Duration, spoolDir string) *Manager {
	return &Manager{
		store:     s,
		remote:    svc,
		log:       log,
		counter:   counter,
		attempts:  attempts,
		baseDelay: baseDelay,
		spoolDir:  spoolDir,
	}
}

// Drain replays one snapshot of the pending queue, in order, and returns
// how many entries were removed. Per-entry failures are logged and
// swallowed; the entry stays PENDING with its retry bookkeeping advanced.
func (m *Manager) Drain(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.store.Queue.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	m.log.Info(ctx, "drain started", "pending", len(entries))

	replayed := 0
	for _, e := range entries {
		if err := m.replay(ctx, e); err != nil {
			m.log.Error(ctx, "replay failed, entry stays pending",
				"entry", e.ID, "kind", e.Kind, "record", e.RecordID, "error", err)
			// local failures (bad payload, missing handler) consume no
			// remote attempts and must not inflate the retry count
			used := 0
			var rf *remoteCallError
			if errors.As(err, &rf) {
				used = m.attempts
			}
			if berr := m.store.Queue.MarkStatus(ctx, e.ID, models.EntryStatusPending,
				e.RetryCount+used, timex.NowUnixMilli()); berr != nil {
				m.log.Error(ctx, "retry bookkeeping failed", "entry", e.ID, "error", berr)
			}
			continue
		}
		replayed++
		m.publishPending(ctx)
	}

	m.log.Info(ctx, "drain finished", "replayed", replayed, "left", len(entries)-replayed)
	return replayed, nil
}

// replay dispatches one entry to its handler and, on success, removes the
// entry and finalizes the mirrored row in the same transaction.
func (m *Manager) replay(ctx context.Context, e models.QueueEntry) error {
	h, ok := handlers[handlerKey{table: e.Table, kind: e.Kind}]
	if !ok {
		return fmt.Errorf("no replay handler for %s/%s", e.Table, e.Kind)
	}

	finalize, err := h(ctx, m, e)
	if err != nil {
		return err
	}

	return m.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if finalize != nil {
			if err := finalize(ctx, tx); err != nil {
				return err
			}
		}
		return store.NewQueueRepo(tx).Remove(ctx, e.ID)
	})
}

// remoteCallError marks an error as coming out of an exhausted remote-call
// retry cycle, so Drain can tell it apart from a local replay failure when
// advancing retry bookkeeping.
type remoteCallError struct {
	err error
}

func (e *remoteCallError) Error() string { return e.err.Error() }
func (e *remoteCallError) Unwrap() error { return e.err }

// retry wraps a remote call in the configured bounded linear backoff.
func (m *Manager) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := retryx.Do(ctx, m.attempts, m.baseDelay, fn); err != nil {
		return &remoteCallError{err: err}
	}
	return nil
}

func (m *Manager) publishPending(ctx context.Context) {
	n, err := m.store.Queue.CountPending(ctx)
	if err != nil {
		m.log.Error(ctx, "pending count failed", "error", err)
		return
	}
	m.counter.Set(n)
}

// RefreshPending re-publishes the current pending count, used on
// connectivity transitions.
func (m *Manager) RefreshPending(ctx context.Context) {
	m.publishPending(ctx)
}

// Stats returns per-status queue entry counts.
func (m *Manager) Stats(ctx context.Context) (*store.QueueStats, error) {
	return m.store.Queue.Stats(ctx)
}
