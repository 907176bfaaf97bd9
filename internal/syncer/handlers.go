package syncer

import (
	"context"
	"fmt"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
)

// finalizeFunc runs inside the same transaction that removes the queue
// entry, pairing "clear the mirrored row's dirty flag" with the removal.
type finalizeFunc func(ctx context.Context, tx dbx.DBTX) error

// handlerFunc performs the remote side of one queued mutation and returns
// the local finalization. The remote call(s) must go through m.retry.
type handlerFunc func(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error)

type handlerKey struct {
	table string
	kind  models.OpKind
}

var handlers = map[handlerKey]handlerFunc{
	{models.TableOrders, models.OpMarkOrderLoaded}:    replayOrderAssignment,
	{models.TableOrders, models.OpMarkOrderNotLoaded}: replayOrderAssignment,
	{models.TableOrders, models.OpInvalidateOrder}:    replayOrderAssignment,
	{models.TableOrders, models.OpMoveOrder}:          replayMoveOrder,
	{models.TableRoadmaps, models.OpStartRoadmap}:     replayRoadmapTransition,
	{models.TableRoadmaps, models.OpFinishRoadmap}:    replayRoadmapTransition,
	{models.TablePayments, models.OpCreatePayment}:    replayCreatePayment,
	{models.TablePayments, models.OpUpdatePayment}:    replayUpdatePayment,
	{models.TablePayments, models.OpDeletePayment}:    replayDeletePayment,
	{models.TableMessages, models.OpCreateMessage}:    replayCreateMessage,
	{models.TableMessages, models.OpConfirmMessage}:   replayConfirmMessage,
	{models.TableReturns, models.OpCloseReturn}:       replayCloseReturn,
}

func decodeAs[T any](e models.QueueEntry) (T, error) {
	v, err := models.DecodePayload(e.Kind, e.Payload)
	if err != nil {
		var zero T
		return zero, err
	}
	p, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected payload type %T for %s", v, e.Kind)
	}
	return p, nil
}

func replayOrderAssignment(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.OrderAssignmentPayload](e)
	if err != nil {
		return nil, err
	}

	var call func(ctx context.Context) error
	switch e.Kind {
	case models.OpMarkOrderLoaded:
		call = func(ctx context.Context) error { return m.remote.ConfirmOrderLoad(ctx, p.OrderID) }
	case models.OpMarkOrderNotLoaded:
		call = func(ctx context.Context) error { return m.remote.RejectOrderLoad(ctx, p.OrderID, p.Reason) }
	case models.OpInvalidateOrder:
		call = func(ctx context.Context) error { return m.remote.InvalidateOrder(ctx, p.OrderID, p.Reason) }
	}
	if err := m.retry(ctx, call); err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewOrderRepo(tx).SetSynced(ctx, p.OrderID, true)
	}, nil
}

func replayMoveOrder(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.MoveOrderPayload](e)
	if err != nil {
		return nil, err
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.MoveOrder(ctx, p.RoadmapID, p.OrderID, p.Sequence)
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewOrderRepo(tx).SetSynced(ctx, p.OrderID, true)
	}, nil
}

func replayRoadmapTransition(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.RoadmapTransitionPayload](e)
	if err != nil {
		return nil, err
	}

	call := func(ctx context.Context) error { return m.remote.StartRoadmap(ctx, p.RoadmapID) }
	if e.Kind == models.OpFinishRoadmap {
		call = func(ctx context.Context) error { return m.remote.FinishRoadmap(ctx, p.RoadmapID) }
	}
	if err := m.retry(ctx, call); err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewRoadmapRepo(tx).SetSynced(ctx, p.RoadmapID, true)
	}, nil
}

// replayCreatePayment uploads the voucher binary first when the payment
// carries one: the stored blob is materialized to the spool dir, PUT to the
// presigned URL and the remote attachment id injected into the create. The
// id is persisted back into the entry payload so a later drain (after a
// failed payment create) does not register or upload the voucher again. On
// success the provisional local payment row is deleted; the authoritative
// copy arrives with the next pull.
func replayCreatePayment(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.PaymentPayload](e)
	if err != nil {
		return nil, err
	}

	if p.AttachmentID != "" && p.RemoteAttachmentID == "" {
		att, err := m.store.Attachments.Get(ctx, p.AttachmentID)
		if err != nil {
			return nil, err
		}
		err = m.retry(ctx, func(ctx context.Context) error {
			id, err := remote.UploadAttachment(ctx, m.remote, att, m.spoolDir)
			if err != nil {
				return err
			}
			p.RemoteAttachmentID = id
			return nil
		})
		if err != nil {
			return nil, err
		}
		if data, err := models.EncodePayload(p); err == nil {
			if perr := m.store.Queue.UpdatePayload(ctx, e.ID, data); perr != nil {
				m.log.Warn(ctx, "could not persist remote attachment id",
					"entry", e.ID, "error", perr)
			}
		}
	}

	pay := &models.Payment{
		ID:                p.PaymentID,
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		MethodID:          p.MethodID,
		MethodDescription: p.MethodDescription,
		VoucherNumber:     p.VoucherNumber,
		AttachmentID:      p.AttachmentID,
		Author:            p.Author,
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.CreatePayment(ctx, p.PaymentID, pay, p.RemoteAttachmentID)
	})
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewPaymentRepo(tx).Delete(ctx, p.PaymentID); err != nil {
			return err
		}
		if p.AttachmentID != "" {
			return store.NewAttachmentRepo(tx).SetSynced(ctx, p.AttachmentID, true)
		}
		return nil
	}, nil
}

func replayUpdatePayment(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.PaymentPayload](e)
	if err != nil {
		return nil, err
	}

	pay := &models.Payment{
		ID:                p.PaymentID,
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		MethodID:          p.MethodID,
		MethodDescription: p.MethodDescription,
		VoucherNumber:     p.VoucherNumber,
		AttachmentID:      p.AttachmentID,
		Author:            p.Author,
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.UpdatePayment(ctx, pay)
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewPaymentRepo(tx).SetSynced(ctx, p.PaymentID, true)
	}, nil
}

func replayDeletePayment(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.PaymentPayload](e)
	if err != nil {
		return nil, err
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.DeletePayment(ctx, p.PaymentID)
	})
	if err != nil {
		return nil, err
	}
	// the local row was already deleted when the operation was recorded
	return nil, nil
}

func replayCreateMessage(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.MessagePayload](e)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        p.MessageID,
		Sender:    p.Sender,
		Recipient: p.Recipient,
		Subject:   p.Subject,
		Body:      p.Body,
		Date:      p.Date,
	}
	var remoteID string
	err = m.retry(ctx, func(ctx context.Context) error {
		id, err := m.remote.CreateMessage(ctx, p.MessageID, msg)
		if err != nil {
			return err
		}
		remoteID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewMessageRepo(tx).ConfirmSent(ctx, p.MessageID, remoteID)
	}, nil
}

func replayConfirmMessage(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.MessagePayload](e)
	if err != nil {
		return nil, err
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.ConfirmMessage(ctx, p.RemoteID)
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewMessageRepo(tx).SetSynced(ctx, p.MessageID, true)
	}, nil
}

func replayCloseReturn(ctx context.Context, m *Manager, e models.QueueEntry) (finalizeFunc, error) {
	p, err := decodeAs[*models.CloseReturnPayload](e)
	if err != nil {
		return nil, err
	}
	err = m.retry(ctx, func(ctx context.Context) error {
		return m.remote.CloseReturn(ctx, p.RemoteID, p.Observations)
	})
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, tx dbx.DBTX) error {
		return store.NewReturnRepo(tx).SetSynced(ctx, p.ReturnID, true)
	}, nil
}
