// Package app wires the fieldsync components together and dispatches the
// manual verbs. Without a verb the binary runs as a long-lived agent: the
// connectivity orchestrator probes the remote service and drains the queue
// on every reconnection.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rutero-app/fieldsync/internal/config"
	"github.com/rutero-app/fieldsync/internal/connectivity"
	"github.com/rutero-app/fieldsync/internal/filex"
	"github.com/rutero-app/fieldsync/internal/logging"
	"github.com/rutero-app/fieldsync/internal/ops"
	"github.com/rutero-app/fieldsync/internal/remote"
	"github.com/rutero-app/fieldsync/internal/store"
	"github.com/rutero-app/fieldsync/internal/syncer"
)

const remoteCallTimeout = 15 * time.Second

// App holds the wired components for one fieldsync process.
type App struct {
	cfg     *config.Config
	log     logging.Logger
	store   *store.Store
	ops     *ops.DomainOps
	manager *syncer.Manager
	counter *syncer.Counter
	orch    *connectivity.Orchestrator
	out     io.Writer
}

// NewApp wires config → logger → store → remote client → domain operations →
// sync manager → connectivity orchestrator. Nothing touches the network or
// the database until Run.
func NewApp(cfg *config.Config) (*App, error) {
	log := newLogger(cfg)

	if _, err := filex.EnsureDir(cfg.SpoolDir); err != nil {
		return nil, err
	}

	s := store.New(cfg.DatabasePath, log)
	client := remote.NewHTTPClient(cfg.APIBaseURL, cfg.APIToken, remoteCallTimeout)
	domain := ops.New(s, client, log, cfg.DriverID, cfg.SpoolDir)

	counter := syncer.NewCounter()
	manager := syncer.New(s, client, log, counter,
		cfg.RetryAttempts, cfg.RetryBaseDelay, cfg.SpoolDir)

	orch := connectivity.New(s, client, manager, log, cfg.ProbeInterval, func(online bool) {
		if online {
			domain.SetMode(ops.ModeOnline)
		} else {
			domain.SetMode(ops.ModeOffline)
		}
	})

	return &App{
		cfg:     cfg,
		log:     log,
		store:   s,
		ops:     domain,
		manager: manager,
		counter: counter,
		orch:    orch,
		out:     os.Stdout,
	}, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	rotor := &lumberjack.Logger{
		Filename:   "fieldsync.log",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
	h := slog.NewJSONHandler(io.MultiWriter(rotor, os.Stderr), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return logging.NewSlogLogger(slog.New(h))
}

// Run opens the store and executes the verb from the command line, or runs
// the long-lived agent when no verb was given.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Open(ctx); err != nil {
		return err
	}
	defer a.store.Close()

	return a.runVerb(ctx, verb(os.Args[1:]))
}

func (a *App) runVerb(ctx context.Context, v string) error {
	switch v {
	case "":
		return a.runAgent(ctx)
	case "sync":
		n, err := a.manager.Drain(ctx)
		if err != nil {
			return err
		}
		stats, err := a.manager.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "replayed %d entries, %d still pending\n", n, stats.Pending)
		return nil
	case "pending":
		stats, err := a.manager.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "pending: %d\nfailed: %d\ncompleted: %d\n",
			stats.Pending, stats.Failed, stats.Completed)
		return nil
	case "reset":
		return a.store.Reset(ctx)
	case "sync-table", "cleanup":
		// accepted for compatibility, currently reserved
		a.log.Warn(ctx, "verb is a reserved no-op", "verb", v)
		return nil
	default:
		return fmt.Errorf("unknown verb: %s", v)
	}
}

// runAgent blocks until interrupted, probing connectivity and draining the
// queue on reconnections.
func (a *App) runAgent(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info(ctx, "agent started",
		"api", a.cfg.APIBaseURL, "db", a.cfg.DatabasePath,
		"probe_interval", a.cfg.ProbeInterval)

	err := a.orch.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info(ctx, "agent stopped")
		return nil
	}
	return err
}

// verb returns the first argument that is neither a flag nor a flag value.
func verb(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		return arg
	}
	return ""
}
