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

// AttachmentRepo stores binary payloads (voucher photos). The binary is
// written exactly once at capture time; replay only reads it for upload.
type AttachmentRepo struct {
	repo
}

// NewAttachmentRepo returns a transaction-scoped repository.
func NewAttachmentRepo(db dbx.DBTX) *AttachmentRepo {
	return &AttachmentRepo{repo{db: db}}
}

// Insert stores a new attachment. Attachments are immutable; there is no
// upsert path.
func (r *AttachmentRepo) Insert(ctx context.Context, a *models.Attachment) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	_, err = h.ExecContext(ctx,
		`INSERT INTO attachments (id, name, mime_type, size, container, data, is_synced, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.MimeType, a.Size, a.Container, a.Data, boolToInt(a.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// Get returns an attachment with its binary payload.
func (r *AttachmentRepo) Get(ctx context.Context, id string) (*models.Attachment, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	a := &models.Attachment{}
	var synced int
	row := h.QueryRowContext(ctx,
		`SELECT id, name, mime_type, size, container, data, is_synced, created_at, updated_at
		 FROM attachments WHERE id = ?`, id)
	err = row.Scan(&a.ID, &a.Name, &a.MimeType, &a.Size, &a.Container, &a.Data, &synced,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select attachment: %w", err)
	}
	a.Synced = synced == 1
	return a, nil
}

// SetSynced flips only the sync flag.
func (r *AttachmentRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE attachments SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update attachment sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes an attachment row and its binary payload.
func (r *AttachmentRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
