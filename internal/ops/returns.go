package ops

import (
	"context"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/store"
)

// CloseReturn closes a product return with the driver's observations.
func (d *DomainOps) CloseReturn(ctx context.Context, returnID, observations string) error {
	ret, err := d.store.Returns.Get(ctx, returnID)
	if err != nil {
		return err
	}

	if d.online() {
		if err := d.remote.CloseReturn(ctx, ret.RemoteID, observations); err != nil {
			return err
		}
		return d.store.Returns.Close(ctx, returnID, observations, true)
	}
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewReturnRepo(tx).Close(ctx, returnID, observations, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpCloseReturn, returnID, &models.CloseReturnPayload{
			ReturnID:     returnID,
			RemoteID:     ret.RemoteID,
			Observations: observations,
		})
	})
}

// Returns lists the order's returns from the local mirror.
func (d *DomainOps) Returns(ctx context.Context, orderID string) ([]models.Return, error) {
	return d.store.Returns.ListByOrder(ctx, orderID)
}
