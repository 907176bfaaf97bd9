package ops

import (
	"context"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/store"
)

// MarkOrderLoaded confirms that the order's goods are on the truck.
func (d *DomainOps) MarkOrderLoaded(ctx context.Context, orderID string) error {
	if d.online() {
		if err := d.remote.ConfirmOrderLoad(ctx, orderID); err != nil {
			return err
		}
		return d.store.Orders.SetStatus(ctx, orderID, models.OrderStatusLoaded, "", true)
	}
	return d.assignOffline(ctx, models.OpMarkOrderLoaded, orderID, models.OrderStatusLoaded, "")
}

// MarkOrderNotLoaded rejects the load with a reason.
func (d *DomainOps) MarkOrderNotLoaded(ctx context.Context, orderID, reason string) error {
	if d.online() {
		if err := d.remote.RejectOrderLoad(ctx, orderID, reason); err != nil {
			return err
		}
		return d.store.Orders.SetStatus(ctx, orderID, models.OrderStatusNotLoaded, reason, true)
	}
	return d.assignOffline(ctx, models.OpMarkOrderNotLoaded, orderID, models.OrderStatusNotLoaded, reason)
}

// InvalidateOrder takes the order out of the route with a reason.
func (d *DomainOps) InvalidateOrder(ctx context.Context, orderID, reason string) error {
	if d.online() {
		if err := d.remote.InvalidateOrder(ctx, orderID, reason); err != nil {
			return err
		}
		return d.store.Orders.SetStatus(ctx, orderID, models.OrderStatusInvalidated, reason, true)
	}
	return d.assignOffline(ctx, models.OpInvalidateOrder, orderID, models.OrderStatusInvalidated, reason)
}

func (d *DomainOps) assignOffline(ctx context.Context, kind models.OpKind, orderID string, status models.OrderStatus, reason string) error {
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewOrderRepo(tx).SetStatus(ctx, orderID, status, reason, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, kind, orderID, &models.OrderAssignmentPayload{
			OrderID: orderID,
			Reason:  reason,
		})
	})
}

// MoveOrder repositions the order within its roadmap.
func (d *DomainOps) MoveOrder(ctx context.Context, roadmapID, orderID string, sequence int) error {
	if d.online() {
		if err := d.remote.MoveOrder(ctx, roadmapID, orderID, sequence); err != nil {
			return err
		}
		return d.store.Orders.SetSequence(ctx, orderID, sequence, true)
	}
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewOrderRepo(tx).SetSequence(ctx, orderID, sequence, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpMoveOrder, orderID, &models.MoveOrderPayload{
			RoadmapID: roadmapID,
			OrderID:   orderID,
			Sequence:  sequence,
		})
	})
}

// Orders returns the roadmap's orders from the local mirror in delivery
// sequence.
func (d *DomainOps) Orders(ctx context.Context, roadmapID string) ([]models.Order, error) {
	return d.store.Orders.ListByRoadmap(ctx, roadmapID)
}

// Order returns one order from the local mirror.
func (d *DomainOps) Order(ctx context.Context, orderID string) (*models.Order, error) {
	return d.store.Orders.Get(ctx, orderID)
}
