package store

import (
	"context"
	"fmt"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// DirectoryRepo caches the slow-moving reference data pulled from the
// remote service: users, clients, payment methods and payment conditions.
// Pulls replace each table wholesale; directory rows are never edited
// locally.
type DirectoryRepo struct {
	repo
}

// NewDirectoryRepo returns a transaction-scoped repository.
func NewDirectoryRepo(db dbx.DBTX) *DirectoryRepo {
	return &DirectoryRepo{repo{db: db}}
}

// ReplaceUsers swaps the cached user directory for the given set.
func (r *DirectoryRepo) ReplaceUsers(ctx context.Context, users []models.User) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	now := timex.NowUnixMilli()
	for _, u := range users {
		_, err := h.ExecContext(ctx,
			`INSERT INTO users (id, remote_id, first_name, last_name, login, is_synced, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			u.ID, u.RemoteID, u.FirstName, u.LastName, u.Login, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}
	return nil
}

// ListUsers returns the cached user directory.
func (r *DirectoryRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT id, remote_id, first_name, last_name, login, is_synced, created_at, updated_at
		 FROM users ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var u models.User
		var synced int
		if err := rows.Scan(&u.ID, &u.RemoteID, &u.FirstName, &u.LastName, &u.Login,
			&synced, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Synced = synced == 1
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceClients swaps the cached client directory for the given set.
func (r *DirectoryRepo) ReplaceClients(ctx context.Context, clients []models.Client) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM clients`); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}
	now := timex.NowUnixMilli()
	for _, c := range clients {
		_, err := h.ExecContext(ctx,
			`INSERT INTO clients (id, code, name, address, district, canton, province,
				latitude, longitude, opens_at, closes_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Code, c.Name, c.Address, c.District, c.Canton, c.Province,
			c.Latitude, c.Longitude, c.OpensAt, c.ClosesAt, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert client: %w", err)
		}
	}
	return nil
}

// ListClients returns the cached client directory.
func (r *DirectoryRepo) ListClients(ctx context.Context) ([]models.Client, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT id, code, name, address, district, canton, province,
			latitude, longitude, opens_at, closes_at, created_at, updated_at
		 FROM clients ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to select clients: %w", err)
	}
	defer rows.Close()

	var result []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Address, &c.District, &c.Canton,
			&c.Province, &c.Latitude, &c.Longitude, &c.OpensAt, &c.ClosesAt,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplacePaymentMethods swaps the cached payment methods for the given set.
func (r *DirectoryRepo) ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM payment_methods`); err != nil {
		return fmt.Errorf("failed to clear payment methods: %w", err)
	}
	now := timex.NowUnixMilli()
	for _, m := range methods {
		_, err := h.ExecContext(ctx,
			`INSERT INTO payment_methods (id, remote_id, description, position, is_synced, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			m.ID, m.RemoteID, m.Description, m.Position, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert payment method: %w", err)
		}
	}
	return nil
}

// ListPaymentMethods returns the cached payment methods in display order.
func (r *DirectoryRepo) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT id, remote_id, description, position, is_synced, created_at, updated_at
		 FROM payment_methods ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select payment methods: %w", err)
	}
	defer rows.Close()

	var result []models.PaymentMethod
	for rows.Next() {
		var m models.PaymentMethod
		var synced int
		if err := rows.Scan(&m.ID, &m.RemoteID, &m.Description, &m.Position, &synced,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Synced = synced == 1
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplacePaymentConditions swaps the cached payment conditions for the given set.
func (r *DirectoryRepo) ReplacePaymentConditions(ctx context.Context, conditions []models.PaymentCondition) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM payment_conditions`); err != nil {
		return fmt.Errorf("failed to clear payment conditions: %w", err)
	}
	now := timex.NowUnixMilli()
	for _, c := range conditions {
		_, err := h.ExecContext(ctx,
			`INSERT INTO payment_conditions (id, remote_id, description, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.RemoteID, c.Description, c.Position, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert payment condition: %w", err)
		}
	}
	return nil
}

// ListPaymentConditions returns the cached payment conditions in display order.
func (r *DirectoryRepo) ListPaymentConditions(ctx context.Context) ([]models.PaymentCondition, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT id, remote_id, description, position, created_at, updated_at
		 FROM payment_conditions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to select payment conditions: %w", err)
	}
	defer rows.Close()

	var result []models.PaymentCondition
	for rows.Next() {
		var c models.PaymentCondition
		if err := rows.Scan(&c.ID, &c.RemoteID, &c.Description, &c.Position,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
