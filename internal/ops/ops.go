// Package ops is the domain operations layer: one method per domain read or
// write, each consulting the connectivity mode exactly once at entry. Online
// writes call the remote service and mirror the result locally with the sync
// flag clean; offline writes persist a dirty row and append a queue entry in
// the same transaction. Remote failures on the online path propagate to the
// caller unchanged; there is no adaptive per-call fallback.
package ops

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/models"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
)

// ErrOffline is returned by operations that have no offline path, such as
// the directory refresh.
var ErrOffline = errors.New("operation requires connectivity")

// Mode is the connectivity mode the operations layer switches on. It is
// flipped by the connectivity orchestrator, never derived per call.
type Mode int32

const (
	ModeOffline Mode = iota
	ModeOnline
)

func (m Mode) String() string {
	if m == ModeOnline {
		return "online"
	}
	return "offline"
}

// DomainOps routes every domain read and write to the store, the remote
// service, or both, depending on the current Mode.
type DomainOps struct {
	store    *store.Store
	remote   remote.Service
	log      logging.Logger
	driverID string
	spoolDir string

	mu   sync.RWMutex
	mode Mode
}

// New constructs the operations layer. The mode starts Offline; the
// connectivity orchestrator flips it once the remote service is reachable.
func New(s *store.Store, svc remote.Service, log logging.Logger, driverID, spoolDir string) *DomainOps {
	return &DomainOps{
		store:    s,
		remote:   svc,
		log:      log,
		driverID: driverID,
		spoolDir: spoolDir,
		mode:     ModeOffline,
	}
}

// SetMode flips the connectivity mode.
func (d *DomainOps) SetMode(m Mode) {
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

// Mode returns the current connectivity mode.
func (d *DomainOps) Mode() Mode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

func (d *DomainOps) online() bool {
	return d.Mode() == ModeOnline
}

// enqueueTx appends a queue entry for kind inside an open transaction, so
// the dirty row and its paired entry commit or roll back together.
func enqueueTx(ctx context.Context, tx dbx.DBTX, kind models.OpKind, recordID string, payload any) error {
	data, err := models.EncodePayload(payload)
	if err != nil {
		return err
	}
	return store.NewQueueRepo(tx).Enqueue(ctx, &models.QueueEntry{
		ID:       uuid.NewString(),
		Table:    models.TableFor(kind),
		RecordID: recordID,
		Kind:     kind,
		Payload:  data,
	})
}
