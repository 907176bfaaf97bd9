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

// PaymentRepo stores payments collected against orders.
type PaymentRepo struct {
	repo
}

// NewPaymentRepo returns a transaction-scoped repository.
func NewPaymentRepo(db dbx.DBTX) *PaymentRepo {
	return &PaymentRepo{repo{db: db}}
}

const paymentColumns = `id, order_id, amount, method_id, method_description,
	voucher_number, attachment_id, author, is_synced, created_at, updated_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var synced int
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.MethodID, &p.MethodDescription,
		&p.VoucherNumber, &p.AttachmentID, &p.Author, &synced, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Synced = synced == 1
	return p, nil
}

// Upsert inserts or replaces a clean payment row; a dirty row is not
// overwritten.
func (r *PaymentRepo) Upsert(ctx context.Context, p *models.Payment) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	now := timex.NowUnixMilli()
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_id = excluded.order_id,
			amount = excluded.amount,
			method_id = excluded.method_id,
			method_description = excluded.method_description,
			voucher_number = excluded.voucher_number,
			attachment_id = excluded.attachment_id,
			author = excluded.author,
			is_synced = excluded.is_synced,
			updated_at = excluded.updated_at
		WHERE payments.is_synced = 1`
	_, err = h.ExecContext(ctx, query,
		p.ID, p.OrderID, p.Amount, p.MethodID, p.MethodDescription,
		p.VoucherNumber, p.AttachmentID, p.Author, boolToInt(p.Synced), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// Get returns a payment by id.
func (r *PaymentRepo) Get(ctx context.Context, id string) (*models.Payment, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	row := h.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select payment: %w", err)
	}
	return p, nil
}

// ListByOrder returns the order's payments, oldest first.
func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID string) ([]models.Payment, error) {
	h, err := r.handle()
	if err != nil {
		return nil, err
	}

	rows, err := h.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ? ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}
	defer rows.Close()

	var result []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the mutable payment fields and sets the sync flag as
// instructed.
func (r *PaymentRepo) Update(ctx context.Context, p *models.Payment, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE payments SET amount = ?, method_id = ?, method_description = ?,
			voucher_number = ?, attachment_id = ?, is_synced = ?, updated_at = ?
		 WHERE id = ?`,
		p.Amount, p.MethodID, p.MethodDescription, p.VoucherNumber, p.AttachmentID,
		boolToInt(synced), timex.NowUnixMilli(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return expectOneRow(res)
}

// SetSynced flips only the sync flag.
func (r *PaymentRepo) SetSynced(ctx context.Context, id string, synced bool) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	res, err := h.ExecContext(ctx,
		`UPDATE payments SET is_synced = ?, updated_at = ? WHERE id = ?`,
		boolToInt(synced), timex.NowUnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment sync flag: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a payment row.
func (r *PaymentRepo) Delete(ctx context.Context, id string) error {
	h, err := r.handle()
	if err != nil {
		return err
	}

	if _, err := h.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return nil
}
