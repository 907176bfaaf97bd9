package ops

import (
	"context"
	"errors"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/store"
)

// StartRoadmap marks the route as started for the day.
func (d *DomainOps) StartRoadmap(ctx context.Context, roadmapID string) error {
	if d.online() {
		if err := d.remote.StartRoadmap(ctx, roadmapID); err != nil {
			return err
		}
		return d.store.Roadmaps.SetStatus(ctx, roadmapID, models.RoadmapStatusStarted, true)
	}
	return d.roadmapTransitionOffline(ctx, models.OpStartRoadmap, roadmapID, models.RoadmapStatusStarted)
}

// FinishRoadmap marks the route as finished.
func (d *DomainOps) FinishRoadmap(ctx context.Context, roadmapID string) error {
	if d.online() {
		if err := d.remote.FinishRoadmap(ctx, roadmapID); err != nil {
			return err
		}
		return d.store.Roadmaps.SetStatus(ctx, roadmapID, models.RoadmapStatusFinished, true)
	}
	return d.roadmapTransitionOffline(ctx, models.OpFinishRoadmap, roadmapID, models.RoadmapStatusFinished)
}

func (d *DomainOps) roadmapTransitionOffline(ctx context.Context, kind models.OpKind, roadmapID string, status models.RoadmapStatus) error {
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewRoadmapRepo(tx).SetStatus(ctx, roadmapID, status, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, kind, roadmapID, &models.RoadmapTransitionPayload{
			RoadmapID: roadmapID,
		})
	})
}

// PullRoadmap returns the driver's current roadmap with its orders. Offline
// it reads the local mirror. Online it fetches the canonical copy, overlays
// status-bearing fields from locally dirty rows, and refreshes the mirror;
// the guarded upsert independently protects dirty rows at the SQL level.
func (d *DomainOps) PullRoadmap(ctx context.Context) (*models.Roadmap, error) {
	if !d.online() {
		return d.CurrentRoadmap(ctx)
	}

	rm, err := d.remote.GetRoadmap(ctx, d.driverID)
	if err != nil {
		return nil, err
	}

	local, err := d.store.Roadmaps.Get(ctx, rm.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if local != nil && !local.Synced {
		merged := Reconcile(local, *rm, overlayRoadmap)
		rm = &merged
	}

	dirty, err := d.store.Orders.ListDirtyByRoadmap(ctx, rm.ID)
	if err != nil {
		return nil, err
	}
	for i, o := range rm.Orders {
		if loc, ok := dirty[o.ID]; ok {
			rm.Orders[i] = Reconcile(&loc, o, overlayOrder)
		}
	}

	if err := d.store.Roadmaps.Upsert(ctx, rm); err != nil {
		return nil, err
	}
	for i := range rm.Orders {
		if err := d.store.Orders.Upsert(ctx, &rm.Orders[i]); err != nil {
			return nil, err
		}
	}
	d.log.Info(ctx, "roadmap refreshed", "roadmap", rm.ID, "orders", len(rm.Orders), "dirty", len(dirty))
	return rm, nil
}

// CurrentRoadmap returns the locally mirrored roadmap with its orders.
func (d *DomainOps) CurrentRoadmap(ctx context.Context) (*models.Roadmap, error) {
	rm, err := d.store.Roadmaps.Current(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := d.store.Orders.ListByRoadmap(ctx, rm.ID)
	if err != nil {
		return nil, err
	}
	rm.Orders = orders
	return rm, nil
}
