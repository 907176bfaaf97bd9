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

// ReturnRepo stores product returns registered against orders.
type ReturnRepo struct {
	repo
}

// NewReturnRepo returns a transaction-scoped repository.
func NewReturnRepo(db dbx.DBTX) *ReturnRepo {
	return &ReturnRepo{repo{db: db}}
}

const returnColumns = `id, remote_id, order_id, products, status, observations,
	sequence, latitude, longitude, is_synced, created_at, updated_at`

func scanReturn(row interface{ Scan(dest ...any) error }) (*models.Return, error) {
	ret := &models.Return{}
	var synced int
	err := row.Scan(&ret.ID, &ret.RemoteID, &ret.OrderID, &ret.Products, &ret.Status,
		&ret.Observations, &ret.Sequence, &ret.Latitude, &ret.Longitude, &synced,
		&ret.CreatedAt, &ret.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ret.Synced = synced == 1
	return ret, nil
}

// Upsert inserts or replaces a clean return row; a dirty row is not
// overwritten.
func (r *ReturnRepo) Upsert(ctx context.Context, ret *models.Return) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	query := `INSERT INTO returns (` + returnColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			remote_id = excluded.remote_id,
			order_id = excluded.order_id,
			products = excluded.products,
			status = excluded.status,
			observations = excluded.observations,
			sequence = excluded.sequence,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at
		WHERE returns.is_synced = 1`
	_, err = h.ExecContext(ctx, query,
		ret.ID, ret.RemoteID, ret.OrderID, ret.Products, ret.Status, ret.Observations,
		ret.Sequence, ret.Latitude, ret.Longitude, boolToInt(ret.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert return: %w", err)
	}
	return nil
}

// Get returns a return by local id.
func (r *ReturnRepo) Get(ctx context.Context, id string) (*models.Return, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = ?`, id)
	ret, err := scanReturn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select return: %w", err)
	}
	return ret, nil
}

// ListByOrder returns the order's returns in sequence order.
func (r *ReturnRepo) ListByOrder(ctx context.Context, orderID string) ([]models.Return, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE order_id = ? ORDER BY sequence ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select returns: %w", err)
	}
	defer rows.Close()

	var result []models.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ret)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Close marks the return closed with the given observations and sets the
// sync flag as instructed.
func (r *ReturnRepo) Close(ctx context.Context, id, observations string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE returns SET status = ?, observations = ?, is_synced = ?, updated_at = ? WHERE id = ?`,
		models.ReturnStatusClosed, observations, boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to close return: %w", err)
	}
	return expectOneRow(res)
}

// SetSynced flips only the sync flag.
func (r *ReturnRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE returns SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update return sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a return row.
func (r *ReturnRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM returns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete return: %w", err)
	}
	return nil
}
