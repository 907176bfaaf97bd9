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

// RoadmapRepo stores the driver's mirrored roadmaps. Nested orders live in
// the orders table; Roadmap.Orders is populated by the operations layer.
type RoadmapRepo struct {
	repo
}

// NewRoadmapRepo returns a transaction-scoped repository.
func NewRoadmapRepo(db dbx.DBTX) *RoadmapRepo {
	return &RoadmapRepo{repo{db: db}}
}

const roadmapColumns = `id, number, status, route, total_orders, total_bags,
	total_credit, total_cash, delivery_date, is_synced, created_at, updated_at`

func scanRoadmap(row interface{ Scan(dest ...any) error }) (*models.Roadmap, error) {
	rm := &models.Roadmap{}
	var synced int
	err := row.Scan(&rm.ID, &rm.Number, &rm.Status, &rm.Route, &rm.TotalOrders, &rm.TotalBags,
		&rm.TotalCredit, &rm.TotalCash, &rm.DeliveryDate, &synced, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rm.Synced = synced == 1
	return rm, nil
}

// Upsert inserts or replaces a clean roadmap row; a dirty row is not
// overwritten.
func (r *RoadmapRepo) Upsert(ctx context.Context, rm *models.Roadmap) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	query := `INSERT INTO roadmaps (` + roadmapColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			status = excluded.status,
			route = excluded.route,
			total_orders = excluded.total_orders,
			total_bags = excluded.total_bags,
			total_credit = excluded.total_credit,
			total_cash = excluded.total_cash,
			delivery_date = excluded.delivery_date,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at
		WHERE roadmaps.is_synced = 1`
	_, err = h.ExecContext(ctx, query,
		rm.ID, rm.Number, rm.Status, rm.Route, rm.TotalOrders, rm.TotalBags,
		rm.TotalCredit, rm.TotalCash, rm.DeliveryDate, boolToInt(rm.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert roadmap: %w", err)
	}
	return nil
}

// Get returns a roadmap by id.
func (r *RoadmapRepo) Get(ctx context.Context, id string) (*models.Roadmap, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx, `SELECT `+roadmapColumns+` FROM roadmaps WHERE id = ?`, id)
	rm, err := scanRoadmap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select roadmap: %w", err)
	}
	return rm, nil
}

// Current returns the most recently mirrored roadmap, the one the driver
// is working today. ErrNotFound when nothing has been pulled yet.
func (r *RoadmapRepo) Current(ctx context.Context) (*models.Roadmap, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx,
		`SELECT `+roadmapColumns+` FROM roadmaps ORDER BY created_at DESC, id DESC LIMIT 1`)
	rm, err := scanRoadmap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select current roadmap: %w", err)
	}
	return rm, nil
}

// SetStatus transitions the roadmap and sets the sync flag as instructed.
func (r *RoadmapRepo) SetStatus(ctx context.Context, id string, status models.RoadmapStatus, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE roadmaps SET status = ?, is_synced = ?, updated_at = ? WHERE id = ?`,
		status, boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update roadmap status: %w", err)
	}
	return expectOneRow(res)
}

// SetSynced flips only the sync flag.
func (r *RoadmapRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE roadmaps SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update roadmap sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a roadmap row.
func (r *RoadmapRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM roadmaps WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}
	return nil
}
