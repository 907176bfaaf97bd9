package ops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
)

// fakeService records every remote call and fails all of them when failWith
// is set.
type fakeService struct {
	mu       sync.Mutex
	calls    []string
	failWith error

	roadmap    *models.Roadmap
	messageID  string
	ticket     *remote.AttachmentTicket
	clients    []models.Client
	users      []models.User
	methods    []models.PaymentMethod
	conditions []models.PaymentCondition

	lastIdempotencyKey   string
	lastRemoteAttachment string
}

func (f *fakeService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeService) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) Health(ctx context.Context) error {
	return f.record("health")
}

func (f *fakeService) GetRoadmap(ctx context.Context, driverID string) (*models.Roadmap, error) {
	if err := f.record("get_roadmap:" + driverID); err != nil {
		return nil, err
	}
	return f.roadmap, nil
}

func (f *fakeService) ConfirmOrderLoad(ctx context.Context, orderID string) error {
	return f.record("confirm_load:" + orderID)
}

func (f *fakeService) RejectOrderLoad(ctx context.Context, orderID, reason string) error {
	return f.record("reject_load:" + orderID)
}

func (f *fakeService) InvalidateOrder(ctx context.Context, orderID, reason string) error {
	return f.record("invalidate:" + orderID)
}

func (f *fakeService) MoveOrder(ctx context.Context, roadmapID, orderID string, sequence int) error {
	return f.record(fmt.Sprintf("move:%s:%s:%d", roadmapID, orderID, sequence))
}

func (f *fakeService) StartRoadmap(ctx context.Context, roadmapID string) error {
	return f.record("start_roadmap:" + roadmapID)
}

func (f *fakeService) FinishRoadmap(ctx context.Context, roadmapID string) error {
	return f.record("finish_roadmap:" + roadmapID)
}

func (f *fakeService) CreatePayment(ctx context.Context, idempotencyKey string, p *models.Payment, remoteAttachmentID string) error {
	err := f.record("create_payment:" + p.ID)
	f.mu.Lock()
	f.lastIdempotencyKey = idempotencyKey
	f.lastRemoteAttachment = remoteAttachmentID
	f.mu.Unlock()
	return err
}

func (f *fakeService) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return f.record("update_payment:" + p.ID)
}

func (f *fakeService) DeletePayment(ctx context.Context, paymentID string) error {
	return f.record("delete_payment:" + paymentID)
}

func (f *fakeService) CreateMessage(ctx context.Context, idempotencyKey string, m *models.Message) (string, error) {
	err := f.record("create_message:" + m.ID)
	f.mu.Lock()
	f.lastIdempotencyKey = idempotencyKey
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.messageID, nil
}

func (f *fakeService) ConfirmMessage(ctx context.Context, remoteID string) error {
	return f.record("confirm_message:" + remoteID)
}

func (f *fakeService) CloseReturn(ctx context.Context, remoteID, observations string) error {
	return f.record("close_return:" + remoteID)
}

func (f *fakeService) CreateAttachment(ctx context.Context, a *models.Attachment) (*remote.AttachmentTicket, error) {
	if err := f.record("create_attachment:" + a.ID); err != nil {
		return nil, err
	}
	return f.ticket, nil
}

func (f *fakeService) ListClients(ctx context.Context) ([]models.Client, error) {
	if err := f.record("list_clients"); err != nil {
		return nil, err
	}
	return f.clients, nil
}

func (f *fakeService) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := f.record("list_users"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeService) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	if err := f.record("list_payment_methods"); err != nil {
		return nil, err
	}
	return f.methods, nil
}

func (f *fakeService) ListPaymentConditions(ctx context.Context) ([]models.PaymentCondition, error) {
	if err := f.record("list_payment_conditions"); err != nil {
		return nil, err
	}
	return f.conditions, nil
}

var _ remote.Service = (*fakeService)(nil)

func newTestOps(t *testing.T) (*DomainOps, *store.Store, *fakeService) {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	s := store.New(filepath.Join(t.TempDir(), "fieldsync.db"), log)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	f := &fakeService{messageID: "rmsg-1"}
	d := New(s, f, log, "driver7", t.TempDir())
	return d, s, f
}

func seedOrder(t *testing.T, s *store.Store, id string, status models.OrderStatus) {
	t.Helper()
	require.NoError(t, s.Orders.Upsert(context.Background(), &models.Order{
		ID: id, RoadmapID: "rm1", Number: "1002", Status: status, Sequence: 1, Synced: true,
	}))
}

func pendingEntries(t *testing.T, s *store.Store) []models.QueueEntry {
	t.Helper()
	entries, err := s.Queue.ListPending(context.Background())
	require.NoError(t, err)
	return entries
}

func TestModeSwitch(t *testing.T) {
	d, _, _ := newTestOps(t)
	assert.Equal(t, ModeOffline, d.Mode())
	d.SetMode(ModeOnline)
	assert.Equal(t, ModeOnline, d.Mode())
	assert.Equal(t, "online", ModeOnline.String())
	assert.Equal(t, "offline", ModeOffline.String())
}

func TestMarkOrderLoaded_Offline(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", models.OrderStatusAssigned)

	require.NoError(t, d.MarkOrderLoaded(ctx, "o1"))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusLoaded, got.Status)
	assert.False(t, got.Synced)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OpMarkOrderLoaded, entries[0].Kind)
	assert.Equal(t, models.TableOrders, entries[0].Table)
	assert.Equal(t, "o1", entries[0].RecordID)

	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "o1", payload.(*models.OrderAssignmentPayload).OrderID)

	// no remote traffic while offline
	assert.Empty(t, f.recorded())
}

func TestMarkOrderLoaded_Online(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", models.OrderStatusAssigned)
	d.SetMode(ModeOnline)

	require.NoError(t, d.MarkOrderLoaded(ctx, "o1"))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusLoaded, got.Status)
	assert.True(t, got.Synced)
	assert.Empty(t, pendingEntries(t, s))
	assert.Equal(t, []string{"confirm_load:o1"}, f.recorded())
}

func TestMarkOrderLoaded_OnlineFailurePropagates(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", models.OrderStatusAssigned)
	d.SetMode(ModeOnline)
	f.failWith = assert.AnError

	require.ErrorIs(t, d.MarkOrderLoaded(ctx, "o1"), assert.AnError)

	// no fallback to the offline path within a call
	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAssigned, got.Status)
	assert.True(t, got.Synced)
	assert.Empty(t, pendingEntries(t, s))
}

func TestMarkOrderNotLoaded_Offline_KeepsReason(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", models.OrderStatusAssigned)

	require.NoError(t, d.MarkOrderNotLoaded(ctx, "o1", "faltante en bodega"))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusNotLoaded, got.Status)
	assert.Equal(t, "faltante en bodega", got.Reason)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "faltante en bodega", payload.(*models.OrderAssignmentPayload).Reason)
}

func TestOfflineWrite_RollsBackWithEnqueue(t *testing.T) {
	d, s, _ := newTestOps(t)

	// no such order: the dirty write fails, so no queue entry may survive
	err := d.MarkOrderLoaded(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, pendingEntries(t, s))
}

func TestMoveOrder_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	seedOrder(t, s, "o1", models.OrderStatusAssigned)

	require.NoError(t, d.MoveOrder(ctx, "rm1", "o1", 5))

	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Sequence)
	assert.False(t, got.Synced)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	mv := payload.(*models.MoveOrderPayload)
	assert.Equal(t, "rm1", mv.RoadmapID)
	assert.Equal(t, 5, mv.Sequence)
}

func TestStartRoadmap_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	require.NoError(t, s.Roadmaps.Upsert(ctx, &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusPending, Synced: true,
	}))

	require.NoError(t, d.StartRoadmap(ctx, "rm1"))

	got, err := s.Roadmaps.Get(ctx, "rm1")
	require.NoError(t, err)
	assert.Equal(t, models.RoadmapStatusStarted, got.Status)
	assert.False(t, got.Synced)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OpStartRoadmap, entries[0].Kind)
	assert.Equal(t, models.TableRoadmaps, entries[0].Table)
}

func TestCreatePayment_Offline_WithAttachment(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()

	p := &models.Payment{OrderID: "o1", Amount: 15000, MethodID: "m1", Author: "jperez"}
	att := &models.Attachment{
		Name: "voucher.jpg", MimeType: "image/jpeg",
		Size: 3, Container: "vouchers", Data: []byte{1, 2, 3},
	}
	require.NoError(t, d.CreatePayment(ctx, p, att))
	require.NotEmpty(t, p.ID)
	assert.Equal(t, att.ID, p.AttachmentID)

	got, err := s.Payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Synced)

	stored, err := s.Attachments.Get(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, stored.Data)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OpCreatePayment, entries[0].Kind)
	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	pp := payload.(*models.PaymentPayload)
	assert.Equal(t, att.ID, pp.AttachmentID)
	assert.Empty(t, pp.RemoteAttachmentID)

	// binary stays local until replay uploads it
	assert.Empty(t, f.recorded())
}

func TestCreatePayment_Online(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()
	d.SetMode(ModeOnline)

	p := &models.Payment{OrderID: "o1", Amount: 15000, MethodID: "m1"}
	require.NoError(t, d.CreatePayment(ctx, p, nil))

	assert.Equal(t, p.ID, f.lastIdempotencyKey)
	got, err := s.Payments.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
	assert.Empty(t, pendingEntries(t, s))
}

func TestUpdateAndDeletePayment_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	require.NoError(t, s.Payments.Upsert(ctx, &models.Payment{
		ID: "p1", OrderID: "o1", Amount: 100, Synced: true,
	}))

	p, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	p.Amount = 250
	require.NoError(t, d.UpdatePayment(ctx, p))

	got, err := s.Payments.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(250), got.Amount)
	assert.False(t, got.Synced)

	require.NoError(t, d.DeletePayment(ctx, "p1"))
	_, err = s.Payments.Get(ctx, "p1")
	require.ErrorIs(t, err, store.ErrNotFound)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 2)
	assert.Equal(t, models.OpUpdatePayment, entries[0].Kind)
	assert.Equal(t, models.OpDeletePayment, entries[1].Kind)
}

func TestCreateMessage_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()

	m := &models.Message{Sender: "driver7", Recipient: "dispatch", Subject: "Cliente cerrado", Body: "No hay nadie"}
	require.NoError(t, d.CreateMessage(ctx, m))
	require.NotEmpty(t, m.ID)

	got, err := s.Messages.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.SendPending)
	assert.False(t, got.Synced)
	assert.Empty(t, got.RemoteID)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OpCreateMessage, entries[0].Kind)
}

func TestCreateMessage_Online(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()
	d.SetMode(ModeOnline)

	m := &models.Message{Sender: "driver7", Recipient: "dispatch", Subject: "hola"}
	require.NoError(t, d.CreateMessage(ctx, m))

	assert.Equal(t, m.ID, f.lastIdempotencyKey)
	got, err := s.Messages.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "rmsg-1", got.RemoteID)
	assert.False(t, got.SendPending)
	assert.True(t, got.Synced)
	assert.Empty(t, pendingEntries(t, s))
}

func TestConfirmMessage_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	require.NoError(t, s.Messages.Upsert(ctx, &models.Message{
		ID: "m1", RemoteID: "rmsg-7", Subject: "aviso",
		Status: models.MessageStatusUnread, Synced: true,
	}))

	require.NoError(t, d.ConfirmMessage(ctx, "m1"))

	got, err := s.Messages.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)
	assert.False(t, got.Synced)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "rmsg-7", payload.(*models.MessagePayload).RemoteID)
}

func TestCloseReturn_Offline(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	require.NoError(t, s.Returns.Upsert(ctx, &models.Return{
		ID: "r1", RemoteID: "rr-9", OrderID: "o1",
		Status: models.ReturnStatusOpen, Synced: true,
	}))

	require.NoError(t, d.CloseReturn(ctx, "r1", "producto vencido"))

	got, err := s.Returns.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.ReturnStatusClosed, got.Status)
	assert.False(t, got.Synced)

	entries := pendingEntries(t, s)
	require.Len(t, entries, 1)
	payload, err := models.DecodePayload(entries[0].Kind, entries[0].Payload)
	require.NoError(t, err)
	cr := payload.(*models.CloseReturnPayload)
	assert.Equal(t, "rr-9", cr.RemoteID)
	assert.Equal(t, "producto vencido", cr.Observations)
}

func TestRefreshDirectory(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()

	require.ErrorIs(t, d.RefreshDirectory(ctx), ErrOffline)

	f.clients = []models.Client{{ID: "c1", Code: "C-1", Name: "Super La Esquina"}}
	f.users = []models.User{{ID: "u1", RemoteID: "ru-1", Login: "jperez"}}
	f.methods = []models.PaymentMethod{{ID: "m1", Description: "Efectivo", Position: 1}}
	f.conditions = []models.PaymentCondition{{ID: "pc1", Description: "Contado", Position: 1}}
	d.SetMode(ModeOnline)

	require.NoError(t, d.RefreshDirectory(ctx))

	clients, err := s.Directory.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)

	methods, err := d.PaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "Efectivo", methods[0].Description)
}

func TestPullRoadmap_Offline_ReadsLocalMirror(t *testing.T) {
	d, s, _ := newTestOps(t)
	ctx := context.Background()
	require.NoError(t, s.Roadmaps.Upsert(ctx, &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusStarted, Synced: true,
	}))
	seedOrder(t, s, "o1", models.OrderStatusLoaded)

	rm, err := d.PullRoadmap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rm1", rm.ID)
	require.Len(t, rm.Orders, 1)
	assert.Equal(t, models.OrderStatusLoaded, rm.Orders[0].Status)
}

func TestPullRoadmap_KeepsDirtyOrderStatus(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()

	// locally the order was marked loaded while offline; remote still says assigned
	require.NoError(t, s.Roadmaps.Upsert(ctx, &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusStarted, Synced: true,
	}))
	require.NoError(t, s.Orders.Upsert(ctx, &models.Order{
		ID: "o1", RoadmapID: "rm1", Number: "1002",
		Status: models.OrderStatusLoaded, Sequence: 1, Synced: false,
	}))

	f.roadmap = &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusStarted, Synced: true,
		Orders: []models.Order{
			{ID: "o1", RoadmapID: "rm1", Number: "1002", Status: models.OrderStatusAssigned, Sequence: 1, Synced: true},
			{ID: "o2", RoadmapID: "rm1", Number: "1003", Status: models.OrderStatusAssigned, Sequence: 2, Synced: true},
		},
	}
	d.SetMode(ModeOnline)

	rm, err := d.PullRoadmap(ctx)
	require.NoError(t, err)
	require.Len(t, rm.Orders, 2)
	assert.Equal(t, models.OrderStatusLoaded, rm.Orders[0].Status)
	assert.False(t, rm.Orders[0].Synced)
	assert.Equal(t, models.OrderStatusAssigned, rm.Orders[1].Status)

	// the mirror keeps the dirty status too
	got, err := s.Orders.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusLoaded, got.Status)
	assert.False(t, got.Synced)

	// the clean sibling was refreshed
	got2, err := s.Orders.Get(ctx, "o2")
	require.NoError(t, err)
	assert.True(t, got2.Synced)
}

func TestPullRoadmap_KeepsDirtyRoadmapStatus(t *testing.T) {
	d, s, f := newTestOps(t)
	ctx := context.Background()

	require.NoError(t, s.Roadmaps.Upsert(ctx, &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusStarted, Synced: false,
	}))
	f.roadmap = &models.Roadmap{
		ID: "rm1", Number: "RM-100", Status: models.RoadmapStatusPending, Synced: true,
	}
	d.SetMode(ModeOnline)

	rm, err := d.PullRoadmap(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoadmapStatusStarted, rm.Status)

	got, err := s.Roadmaps.Get(ctx, "rm1")
	require.NoError(t, err)
	assert.Equal(t, models.RoadmapStatusStarted, got.Status)
	assert.False(t, got.Synced)
}
