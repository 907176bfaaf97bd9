// Package store is the local durable mirror of the remote domain entities
// plus the mutation queue. It is backed by a single SQLite handle; all
// access funnels through one connection, and every accessor fails with
// ErrNotInitialized until Open has finished creating the schema.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/rutero-app/fieldsync/internal/dbx"
	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/store/migrations"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotInitialized is returned by any accessor used before Open completes.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrNotFound is returned when a row lookup or a guarded update matches nothing.
	ErrNotFound = errors.New("not found")
)

// Store owns the SQLite handle and exposes one repository per mirrored
// entity plus the mutation queue. Repositories created by the Store check
// the initialization gate; transaction-scoped repositories (created with
// the New*Repo constructors inside WithTx) skip it, since WithTx already
// passed the gate.
type Store struct {
	dsn   string
	db    *sql.DB
	log   logging.Logger
	ready chan struct{}

	Roadmaps    *RoadmapRepo
	Orders      *OrderRepo
	Payments    *PaymentRepo
	Returns     *ReturnRepo
	Messages    *MessageRepo
	Directory   *DirectoryRepo
	Attachments *AttachmentRepo
	Queue       *QueueRepo
}

// New constructs an unopened Store. Accessors return ErrNotInitialized
// until Open is called; callers that must block use Ready.
func New(dsn string, log logging.Logger) *Store {
	s := &Store{dsn: dsn, log: log, ready: make(chan struct{})}
	s.Roadmaps = &RoadmapRepo{repo{s: s}}
	s.Orders = &OrderRepo{repo{s: s}}
	s.Payments = &PaymentRepo{repo{s: s}}
	s.Returns = &ReturnRepo{repo{s: s}}
	s.Messages = &MessageRepo{repo{s: s}}
	s.Directory = &DirectoryRepo{repo{s: s}}
	s.Attachments = &AttachmentRepo{repo{s: s}}
	s.Queue = &QueueRepo{repo{s: s}}
	return s
}

// Open opens the database, runs migrations and closes the ready gate.
func (s *Store) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// One connection: mirrors the single-handle discipline the schema
	// relies on and keeps SQLite writers from contending.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	s.db = db
	close(s.ready)
	s.log.Info(ctx, "store initialized", "dsn", s.dsn)
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Ready is closed once the schema exists. The connectivity orchestrator and
// the domain operations layer block on it before their first access.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) gate() error {
	select {
	case <-s.ready:
		return nil
	default:
		return ErrNotInitialized
	}
}

// WithTx runs fn inside a transaction once the store is initialized.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := s.gate(); err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// Reset drops and recreates all tables. Used for recovery and local
// development; all mirrored data and queued mutations are lost.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.gate(); err != nil {
		return err
	}
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.DownToContext(ctx, s.db, ".", 0); err != nil {
		return fmt.Errorf("reset (down): %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("reset (up): %w", err)
	}
	s.log.Warn(ctx, "store reset: all tables dropped and recreated")
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// repo is the shared base for the per-entity repositories: either bound to
// the Store (gate-checked) or to an explicit DBTX (transaction-scoped).
type repo struct {
	s  *Store
	db dbx.DBTX
}

func (r repo) handle() (dbx.DBTX, error) {
	if r.db != nil {
		return r.db, nil
	}
	if err := r.s.gate(); err != nil {
		return nil, err
	}
	return r.s.db, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// expectOneRow converts a driver result into ErrNotFound when no row matched.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
