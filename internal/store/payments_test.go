package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutero-app/fieldsync/internal/models"
)

func TestPaymentRepo_UpsertGetList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Payment{
		ID: "p1", OrderID: "o1", Amount: 15000,
		MethodID: "m1", MethodDescription: "Transferencia",
		VoucherNumber: "V-123", AttachmentID: "a1", Author: "jperez",
		Synced: false,
	}
	require.NoError(t, s.Payments.Upsert(ctx, p))

	got, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(15000), got.Amount)
	assert.Equal(t, "a1", got.AttachmentID)
	assert.False(t, got.Synced)

	list, err := s.Payments.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPaymentRepo_Upsert_DoesNotClobberDirtyRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Payments.Upsert(ctx, &models.Payment{ID: "p1", OrderID: "o1", Amount: 100, Synced: false}))
	require.NoError(t, s.Payments.Upsert(ctx, &models.Payment{ID: "p1", OrderID: "o1", Amount: 999, Synced: true}))

	got, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(100), got.Amount)
	assert.False(t, got.Synced)
}

func TestPaymentRepo_UpdateDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Payments.Upsert(ctx, &models.Payment{ID: "p1", OrderID: "o1", Amount: 100, Synced: true}))

	p, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	p.Amount = 250
	require.NoError(t, s.Payments.Update(ctx, p, false))

	got, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(250), got.Amount)
	assert.False(t, got.Synced)

	require.NoError(t, s.Payments.Delete(ctx, "p1"))
	_, err = s.Payments.Get(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReturnRepo_CloseFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ret := &models.Return{
		ID: "r1", RemoteID: "rr-9", OrderID: "o1",
		Products: `[{"code":"P-1","qty":2}]`,
		Status:   models.ReturnStatusOpen, Sequence: 1, Synced: true,
	}
	require.NoError(t, s.Returns.Upsert(ctx, ret))

	require.NoError(t, s.Returns.Close(ctx, "r1", "producto vencido", false))
	got, err := s.Returns.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusClosed, got.Status)
	assert.Equal(t, "producto vencido", got.Observations)
	assert.False(t, got.Synced)

	require.NoError(t, s.Returns.SetSynced(ctx, "r1", true))
	got, err = s.Returns.Get(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, got.Synced)

	list, err := s.Returns.ListByOrder(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestMessageRepo_SendFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &models.Message{
		ID: "m1", Sender: "driver7", Recipient: "dispatch",
		Subject: "Cliente cerrado", Body: "No hay nadie en el local",
		Date: 1700000000000, Status: models.MessageStatusUnread,
		SendPending: true, Synced: false,
	}
	require.NoError(t, s.Messages.Upsert(ctx, m))

	require.NoError(t, s.Messages.ConfirmSent(ctx, "m1", "rm-55"))
	got, err := s.Messages.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "rm-55", got.RemoteID)
	assert.False(t, got.SendPending)
	assert.True(t, got.Synced)

	require.NoError(t, s.Messages.MarkRead(ctx, "m1", false))
	got, err = s.Messages.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)
	assert.False(t, got.Synced)

	list, err := s.Messages.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestAttachmentRepo_StoredOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &models.Attachment{
		ID: "a1", Name: "voucher.jpg", MimeType: "image/jpeg",
		Size: 3, Container: "vouchers", Data: []byte{1, 2, 3}, Synced: false,
	}
	require.NoError(t, s.Attachments.Insert(ctx, a))

	// a second insert with the same id must fail, the binary is stored once
	require.Error(t, s.Attachments.Insert(ctx, a))

	got, err := s.Attachments.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got.Data)
	assert.Equal(t, "image/jpeg", got.MimeType)

	require.NoError(t, s.Attachments.SetSynced(ctx, "a1", true))
	require.NoError(t, s.Attachments.Delete(ctx, "a1"))
	_, err = s.Attachments.Get(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectoryRepo_ReplaceAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Directory.ReplaceClients(ctx, []models.Client{
		{ID: "c2", Code: "C-2", Name: "Pulpería El Alto", Canton: "Escazú", Province: "San José"},
		{ID: "c1", Code: "C-1", Name: "Super La Esquina", Canton: "Central", Province: "Alajuela"},
	}))
	clients, err := s.Directory.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "C-1", clients[0].Code)

	// a second replace swaps the whole set
	require.NoError(t, s.Directory.ReplaceClients(ctx, []models.Client{
		{ID: "c3", Code: "C-3"},
	}))
	clients, err = s.Directory.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)

	require.NoError(t, s.Directory.ReplaceUsers(ctx, []models.User{
		{ID: "u1", RemoteID: "ru-1", FirstName: "Juan", LastName: "Pérez", Login: "jperez"},
	}))
	users, err := s.Directory.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, s.Directory.ReplacePaymentMethods(ctx, []models.PaymentMethod{
		{ID: "m2", RemoteID: "2", Description: "Transferencia", Position: 2},
		{ID: "m1", RemoteID: "1", Description: "Efectivo", Position: 1},
	}))
	methods, err := s.Directory.ListPaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "Efectivo", methods[0].Description)

	require.NoError(t, s.Directory.ReplacePaymentConditions(ctx, []models.PaymentCondition{
		{ID: "pc1", RemoteID: "1", Description: "Contado", Position: 1},
	}))
	conditions, err := s.Directory.ListPaymentConditions(ctx)
	require.NoError(t, err)
	require.Len(t, conditions, 1)
}

func TestRoadmapRepo_Flow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rm := &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusPending,
		Route: "Ruta 12", TotalOrders: 8, TotalBags: 20,
		TotalCredit: 120000, TotalCash: 45000, DeliveryDate: "2025-03-18",
		Synced: true,
	}
	require.NoError(t, s.Roadmaps.Upsert(ctx, rm))

	got, err := s.Roadmaps.Get(ctx, "rm1")
	require.NoError(t, err)
	assert.Equal(t, "RM-100", got.Number)

	cur, err := s.Roadmaps.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rm1", cur.ID)

	require.NoError(t, s.Roadmaps.SetStatus(ctx, "rm1", models.RoadmapStatusStarted, false))
	got, err = s.Roadmaps.Get(ctx, "rm1")
	require.NoError(t, err)
	assert.Equal(t, models.RoadmapStatusStarted, got.Status)
	assert.False(t, got.Synced)

	// a pull may not clobber the dirty status
	require.NoError(t, s.Roadmaps.Upsert(ctx, &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusPending, Synced: true,
	}))
	got, err = s.Roadmaps.Get(ctx, "rm1")
	require.NoError(t, err)
	assert.Equal(t, models.RoadmapStatusStarted, got.Status)

	require.NoError(t, s.Roadmaps.SetSynced(ctx, "rm1", true))
	require.NoError(t, s.Roadmaps.Delete(ctx, "rm1"))
	_, err = s.Roadmaps.Current(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}
