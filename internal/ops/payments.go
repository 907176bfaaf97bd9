package ops

import (
	"context"

	"github.com/google/uuid"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
)

// CreatePayment registers money collected against an order, optionally with
// a voucher image. The local payment id doubles as the idempotency key for
// the remote create. Offline, the attachment binary is stored locally and
// the upload happens during replay; online it is uploaded right away and
// the blob is never persisted.
func (d *DomainOps) CreatePayment(ctx context.Context, p *models.Payment, att *models.Attachment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if att != nil {
		if att.ID == "" {
			att.ID = uuid.NewString()
		}
		p.AttachmentID = att.ID
	}

	if d.online() {
		var remoteAttachmentID string
		if att != nil {
			id, err := remote.UploadAttachment(ctx, d.remote, att, d.spoolDir)
			if err != nil {
				return err
			}
			remoteAttachmentID = id
		}
		if err := d.remote.CreatePayment(ctx, p.ID, p, remoteAttachmentID); err != nil {
			return err
		}
		p.Synced = true
		return d.store.Payments.Upsert(ctx, p)
	}

	p.Synced = false
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewPaymentRepo(tx).Upsert(ctx, p); err != nil {
			return err
		}
		if att != nil {
			if err := store.NewAttachmentRepo(tx).Insert(ctx, att); err != nil {
				return err
			}
		}
		return enqueueTx(ctx, tx, models.OpCreatePayment, p.ID, paymentPayload(p))
	})
}

// UpdatePayment rewrites an existing payment's fields.
func (d *DomainOps) UpdatePayment(ctx context.Context, p *models.Payment) error {
	if d.online() {
		if err := d.remote.UpdatePayment(ctx, p); err != nil {
			return err
		}
		return d.store.Payments.Update(ctx, p, true)
	}
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewPaymentRepo(tx).Update(ctx, p, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpUpdatePayment, p.ID, paymentPayload(p))
	})
}

// DeletePayment removes a payment locally and remotely. Offline, the local
// row goes away immediately and the remote delete is queued.
func (d *DomainOps) DeletePayment(ctx context.Context, paymentID string) error {
	if d.online() {
		if err := d.remote.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		return d.store.Payments.Delete(ctx, paymentID)
	}
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewPaymentRepo(tx).Delete(ctx, paymentID); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpDeletePayment, paymentID, &models.PaymentPayload{
			PaymentID: paymentID,
		})
	})
}

// Payments returns the order's payments from the local mirror.
func (d *DomainOps) Payments(ctx context.Context, orderID string) ([]models.Payment, error) {
	return d.store.Payments.ListByOrder(ctx, orderID)
}

func paymentPayload(p *models.Payment) *models.PaymentPayload {
	return &models.PaymentPayload{
		PaymentID:         p.ID,
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		MethodID:          p.MethodID,
		MethodDescription: p.MethodDescription,
		VoucherNumber:     p.VoucherNumber,
		AttachmentID:      p.AttachmentID,
		Author:            p.Author,
	}
}
