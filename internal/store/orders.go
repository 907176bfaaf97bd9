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

// OrderRepo stores the orders mirrored from the remote roadmap.
type OrderRepo struct {
	repo
}

// NewOrderRepo returns a transaction-scoped repository.
func NewOrderRepo(db dbx.DBTX) *OrderRepo {
	return &OrderRepo{repo{db: db}}
}

const orderColumns = `id, roadmap_id, number, client_code, client_name, address, amount,
	status, sequence, latitude, longitude, blocked, reason, is_synced, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*models.Order, error) {
	o := &models.Order{}
	var blocked, synced int
	err := row.Scan(&o.ID, &o.RoadmapID, &o.Number, &o.ClientCode, &o.ClientName, &o.Address,
		&o.Amount, &o.Status, &o.Sequence, &o.Latitude, &o.Longitude, &blocked, &o.Reason,
		&synced, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Blocked = blocked == 1
	o.Synced = synced == 1
	return o, nil
}

// Upsert inserts the order or replaces an existing clean row. A dirty row
// (is_synced=0) is left untouched so a pull can never clobber a pending
// local edit.
func (r *OrderRepo) Upsert(ctx context.Context, o *models.Order) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	query := `INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			roadmap_id = excluded.roadmap_id,
			number = excluded.number,
			client_code = excluded.client_code,
			client_name = excluded.client_name,
			address = excluded.address,
			amount = excluded.amount,
			status = excluded.status,
			sequence = excluded.sequence,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			blocked = excluded.blocked,
			reason = excluded.reason,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at
		WHERE orders.is_synced = 1`
	_, err = h.ExecContext(ctx, query,
		o.ID, o.RoadmapID, o.Number, o.ClientCode, o.ClientName, o.Address, o.Amount,
		o.Status, o.Sequence, o.Latitude, o.Longitude, boolToInt(o.Blocked), o.Reason,
		boolToInt(o.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}
	return nil
}

// Get returns an order by id.
func (r *OrderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select order: %w", err)
	}
	return o, nil
}

// ListByRoadmap returns the roadmap's orders in delivery sequence.
func (r *OrderRepo) ListByRoadmap(ctx context.Context, roadmapID string) ([]models.Order, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE roadmap_id = ? ORDER BY sequence ASC`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	var result []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListDirtyByRoadmap returns the roadmap's orders with unsynced local
// edits, keyed by id. The reconciliation step overlays these over freshly
// pulled remote state.
func (r *OrderRepo) ListDirtyByRoadmap(ctx context.Context, roadmapID string) (map[string]models.Order, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE roadmap_id = ? AND is_synced = 0`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dirty orders: %w", err)
	}
	defer rows.Close()

	dirty := map[string]models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		dirty[o.ID] = *o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dirty, nil
}

// SetStatus updates the order status and reason, and sets the sync flag as
// instructed by the caller.
func (r *OrderRepo) SetStatus(ctx context.Context, id string, status models.OrderStatus, reason string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE orders SET status = ?, reason = ?, is_synced = ?, updated_at = ? WHERE id = ?`,
		status, reason, boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectOneRow(res)
}

// SetSequence moves the order to a new position within its roadmap.
func (r *OrderRepo) SetSequence(ctx context.Context, id string, sequence int, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE orders SET sequence = ?, is_synced = ?, updated_at = ? WHERE id = ?`,
		sequence, boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update order sequence: %w", err)
	}
	return expectOneRow(res)
}

// SetSynced flips only the sync flag, leaving the payload fields alone.
func (r *OrderRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE orders SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update order sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes an order row.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
