package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// MessageRepo stores driver/dispatch messages.
type MessageRepo struct {
	repo
}

// NewMessageRepo returns a transaction-scoped repository.
func NewMessageRepo(db dbx.DBTX) *MessageRepo {
	return &MessageRepo{repo{db: db}}
}

const messageColumns = `id, remote_id, sender, recipient, subject, body, date,
	status, send_pending, is_synced, created_at, updated_at`

func scanMessage(row interface{ Scan(dest ...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var sendPending, synced int
	err := row.Scan(&m.ID, &m.RemoteID, &m.Sender, &m.Recipient, &m.Subject, &m.Body,
		&m.Date, &m.Status, &sendPending, &synced, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.SendPending = sendPending == 1
	m.Synced = synced == 1
	return m, nil
}

// Upsert inserts or replaces a clean message row; a dirty row is not
// overwritten.
func (r *MessageRepo) Upsert(ctx context.Context, m *models.Message) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	query := `INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			sender = excluded.sender,
			recipient = excluded.recipient,
			subject = excluded.subject,
			body = excluded.body,
			date = excluded.date,
			status = excluded.status,
			send_pending = excluded.send_pending,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at
		WHERE messages.is_synced = 1`
	_, err = h.ExecContext(ctx, query,
		m.ID, m.RemoteID, m.Sender, m.Recipient, m.Subject, m.Body, m.Date,
		m.Status, boolToInt(m.SendPending), boolToInt(m.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// Get returns a message by local id.
func (r *MessageRepo) Get(ctx context.Context, id string) (*models.Message, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select message: %w", err)
	}
	return m, nil
}

// List returns all messages, newest first.
func (r *MessageRepo) List(ctx context.Context) ([]models.Message, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead flags the message as read and sets the sync flag as instructed.
func (r *MessageRepo) MarkRead(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE messages SET status = ?, is_synced = ?, updated_at = ? WHERE id = ?`,
		models.MessageStatusRead, boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return expectOneRow(res)
}

// ConfirmSent records the remote id assigned at creation, clears the
// send-pending marker and marks the row clean. Called after a successful
// create replay.
func (r *MessageRepo) ConfirmSent(ctx context.Context, id, remoteID string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE messages SET remote_id = ?, send_pending = 0, is_synced = 1, updated_at = ? WHERE id = ?`,
		remoteID, timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to confirm message: %w", err)
	}
	return expectOneRow(res)
}

// SetSynced flips only the sync flag.
func (r *MessageRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE messages SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update message sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a message row.
func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
