package ops

import (
	"context"

	"github.com/google/uuid"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/store"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// CreateMessage sends an operational message to dispatch. Offline, the row
// is stored with the send-pending flag and the create is queued; the remote
// id arrives when the queue entry replays.
func (d *DomainOps) CreateMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date == 0 {
		m.Date = timex.NowUnixMilli()
	}
	m.Status = models.MessageStatusUnread

	if d.online() {
		remoteID, err := d.remote.CreateMessage(ctx, m.ID, m)
		if err != nil {
			return err
		}
		m.RemoteID = remoteID
		m.SendPending = false
		m.Synced = true
		return d.store.Messages.Upsert(ctx, m)
	}

	m.SendPending = true
	m.Synced = false
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewMessageRepo(tx).Upsert(ctx, m); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpCreateMessage, m.ID, &models.MessagePayload{
			MessageID: m.ID,
			Sender:    m.Sender,
			Recipient: m.Recipient,
			Subject:   m.Subject,
			Body:      m.Body,
			Date:      m.Date,
		})
	})
}

// ConfirmMessage marks a received message read and confirms it upstream.
func (d *DomainOps) ConfirmMessage(ctx context.Context, messageID string) error {
	m, err := d.store.Messages.Get(ctx, messageID)
	if err != nil {
		return err
	}

	if d.online() {
		if err := d.remote.ConfirmMessage(ctx, m.RemoteID); err != nil {
			return err
		}
		return d.store.Messages.MarkRead(ctx, messageID, true)
	}
	return d.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := store.NewMessageRepo(tx).MarkRead(ctx, messageID, false); err != nil {
			return err
		}
		return enqueueTx(ctx, tx, models.OpConfirmMessage, messageID, &models.MessagePayload{
			MessageID: messageID,
			RemoteID:  m.RemoteID,
		})
	})
}

// Messages returns all locally mirrored messages, newest first.
func (d *DomainOps) Messages(ctx context.Context) ([]models.Message, error) {
	return d.store.Messages.List(ctx)
}
