package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutero-app/fieldsync/internal/models"
)

func seedOrder(t *testing.T, s *Store, id string, synced bool) *models.Order {
	t.Helper()
	o := &models.Order{
		ID:         id,
		RoadmapID:  "rm1",
		Number:     "1002",
		ClientCode: "C-77",
		ClientName: "Super La Esquina",
		Address:    "200m norte de la iglesia",
		Amount:     15000,
		Status:     models.OrderStatusAssigned,
		Sequence:   1,
		Synced:     synced,
	}
	require.NoError(t, s.Orders.Upsert(context.Background(), o))
	return o
}

func TestOrderRepo_UpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", true)

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "1002", got.Number)
	assert.Equal(t, models.OrderStatusAssigned, got.Status)
	assert.True(t, got.Synced)
	assert.NotZero(t, got.CreatedAt)
	assert.NotZero(t, got.UpdatedAt)
}

func TestOrderRepo_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Orders.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepo_Upsert_DoesNotClobberDirtyRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedOrder(t, s, "o1", true)
	// driver marks the order loaded while offline
	require.NoError(t, s.Orders.SetStatus(ctx, "o1", models.OrderStatusLoaded, "", false))

	// a pull tries to re-mirror the stale remote copy
	stale := &models.Order{
		ID: "o1", RoadmapID: "rm1", Number: "1002",
		Status: models.OrderStatusAssigned, Synced: true,
	}
	require.NoError(t, s.Orders.Upsert(ctx, stale))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusLoaded, got.Status)
	assert.False(t, got.Synced)
}

func TestOrderRepo_Upsert_ReplacesCleanRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedOrder(t, s, "o1", true)
	fresh := &models.Order{
		ID: "o1", RoadmapID: "rm1", Number: "1002",
		Status: models.OrderStatusDelivered, Sequence: 4, Synced: true,
	}
	require.NoError(t, s.Orders.Upsert(ctx, fresh))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.Status)
	assert.Equal(t, 4, got.Sequence)
}

func TestOrderRepo_SetStatus_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Orders.SetStatus(context.Background(), "missing", models.OrderStatusLoaded, "", false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepo_ListByRoadmap_SequenceOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"o3", "o1", "o2"} {
		o := &models.Order{ID: id, RoadmapID: "rm1", Sequence: 3 - i, Synced: true}
		require.NoError(t, s.Orders.Upsert(ctx, o))
	}

	list, err := s.Orders.ListByRoadmap(ctx, "rm1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"o2", "o1", "o3"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestOrderRepo_ListDirtyByRoadmap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedOrder(t, s, "clean", true)
	require.NoError(t, s.Orders.Upsert(ctx, &models.Order{
		ID: "dirty", RoadmapID: "rm1", Status: models.OrderStatusLoaded, Synced: false,
	}))

	dirty, err := s.Orders.ListDirtyByRoadmap(ctx, "rm1")
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Contains(t, dirty, "dirty")
}

func TestOrderRepo_SetSequenceAndSynced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", true)

	require.NoError(t, s.Orders.SetSequence(ctx, "o1", 7, false))
	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Sequence)
	assert.False(t, got.Synced)

	require.NoError(t, s.Orders.SetSynced(ctx, "o1", true))
	got, err = s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

func TestOrderRepo_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", true)

	require.NoError(t, s.Orders.Delete(ctx, "o1"))
	_, err := s.Orders.Get(ctx, "o1")
	require.ErrorIs(t, err, ErrNotFound)
}
