package store

import (
	"context"
	"fmt"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// QueueRepo is the durable, append-only log of remote-bound mutations.
// Entries are removed only after their replay handler reports success;
// the only in-place mutations are retry bookkeeping and payload
// enrichment during replay (UpdatePayload).
type QueueRepo struct {
	repo
}

// NewQueueRepo returns a transaction-scoped repository.
func NewQueueRepo(db dbx.DBTX) *QueueRepo {
	return &QueueRepo{repo{db: db}}
}

// Enqueue appends a PENDING entry. CreatedAt, Status and RetryCount are
// set here; the caller provides everything else.
func (r *QueueRepo) Enqueue(ctx context.Context, e *models.QueueEntry) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	e.CreatedAt = timex.NowUnixMilli()
	e.Status = models.EntryStatusPending
	e.RetryCount = 0

	_, err = h.ExecContext(ctx,
		`INSERT INTO sync_queue (id, target_table, record_id, kind, payload, priority,
			retry_count, last_retry_at, created_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		e.ID, e.Table, e.RecordID, e.Kind, e.Payload, e.Priority, e.CreatedAt, e.Status)
	if err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}
	return nil
}

// ListPending returns all PENDING entries ordered by creation time
// ascending, with priority as a tie-break only. The trailing rowid keeps
// FIFO stable for entries created within the same millisecond.
func (r *QueueRepo) ListPending(ctx context.Context) ([]models.QueueEntry, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT id, target_table, record_id, kind, payload, priority,
			retry_count, last_retry_at, created_at, status
		 FROM sync_queue WHERE status = ?
		 ORDER BY created_at ASC, priority ASC, rowid ASC`,
		models.EntryStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var result []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.ID, &e.Table, &e.RecordID, &e.Kind, &e.Payload, &e.Priority,
			&e.RetryCount, &e.LastRetryAt, &e.CreatedAt, &e.Status); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkStatus updates retry bookkeeping on an entry.
func (r *QueueRepo) MarkStatus(ctx context.Context, id string, status models.EntryStatus, retryCount int, lastRetryAt int64) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE sync_queue SET status = ?, retry_count = ?, last_retry_at = ? WHERE id = ?`,
		status, retryCount, lastRetryAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry: %w", err)
	}
	return expectOneRow(res)
}

// UpdatePayload rewrites an entry's payload. Used to persist state gained
// during a partially successful replay, e.g. the remote attachment id once
// the voucher upload went through, so a later drain does not redo it.
func (r *QueueRepo) UpdatePayload(ctx context.Context, id string, payload []byte) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE sync_queue SET payload = ? WHERE id = ?`, payload, id)
	if err != nil {
		return fmt.Errorf("failed to update queue entry payload: %w", err)
	}
	return expectOneRow(res)
}

// Remove deletes an entry after its replay succeeded.
func (r *QueueRepo) Remove(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove queue entry: %w", err)
	}
	return nil
}

// CountPending returns the number of PENDING entries, the value published
// on the pending-count signal.
func (r *QueueRepo) CountPending(ctx context.Context) (int, error) {
	h, err := r.handle()
	if err != nil {
		return 0, err
	}

	var n int
	err = h.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE status = ?`, models.EntryStatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries: %w", err)
	}
	return n, nil
}

// QueueStats holds per-status entry counts. FAILED and COMPLETED are
// nominal: the active lifecycle is PENDING-or-removed.
type QueueStats struct {
	Pending   int
	Failed    int
	Completed int
}

// Stats returns per-status entry counts.
func (r *QueueRepo) Stats(ctx context.Context) (*QueueStats, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue entries: %w", err)
	}
	defer rows.Close()

	stats := &QueueStats{}
	for rows.Next() {
		var status models.EntryStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		switch status {
		case models.EntryStatusPending:
			stats.Pending = n
		case models.EntryStatusFailed:
			stats.Failed = n
		case models.EntryStatusCompleted:
			stats.Completed = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
