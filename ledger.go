package txledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/id"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/plugin"
	"github.com/xraph/txledger/snapshot"
	"github.com/xraph/txledger/store"
	"github.com/xraph/txledger/store/memory"
	"github.com/xraph/txledger/types"
)

// LockPolicy decides which operations a locked account rejects.
type LockPolicy uint8

const (
	// LockFundingOnly rejects deposits and withdrawals on a locked account.
	// Disputes, resolves and chargebacks still apply.
	LockFundingOnly LockPolicy = iota
	// LockBlocksAll rejects every operation on a locked account.
	LockBlocksAll
)

func (p LockPolicy) String() string {
	switch p {
	case LockFundingOnly:
		return "funding"
	case LockBlocksAll:
		return "all"
	}
	return fmt.Sprintf("lock_policy(%d)", uint8(p))
}

// ParseLockPolicy parses "funding" or "all".
func ParseLockPolicy(s string) (LockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "funding":
		return LockFundingOnly, nil
	case "all":
		return LockBlocksAll, nil
	}
	return 0, fmt.Errorf("txledger: unknown lock policy %q", s)
}

// Ledger is the transaction engine. It applies operations one at a time
// against its store and is not safe for concurrent Apply calls.
type Ledger struct {
	store      store.Store
	exporter   *snapshot.Exporter
	plugins    *plugin.Registry
	logger     *slog.Logger
	lockPolicy LockPolicy
}

// New creates a Ledger backed by a fresh in-memory store unless WithStore
// is given.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.store == nil {
		l.store = memory.New()
	}
	l.exporter = snapshot.NewExporter(l.store)

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithLockPolicy sets which operations a locked account rejects.
func WithLockPolicy(p LockPolicy) Option {
	return func(l *Ledger) {
		l.lockPolicy = p
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithStore sets the backing store. The store must be empty and must not be
// shared with another Ledger.
func WithStore(s store.Store) Option {
	return func(l *Ledger) {
		l.store = s
	}
}

// Start notifies plugins that the engine is ready.
func (l *Ledger) Start(ctx context.Context) {
	l.plugins.EmitInit(ctx, l)
	l.logger.Info("ledger started",
		"lock_policy", l.lockPolicy.String(),
		"plugins", l.plugins.Count(),
	)
}

// Stop notifies plugins that the engine is shutting down.
func (l *Ledger) Stop(ctx context.Context) {
	l.plugins.EmitShutdown(ctx)
}

// LockPolicy returns the configured lock policy.
func (l *Ledger) LockPolicy() LockPolicy {
	return l.lockPolicy
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// Account returns the current state of a client's account.
func (l *Ledger) Account(ctx context.Context, client types.ClientID) (account.Account, bool) {
	a, err := l.store.GetAccount(ctx, client)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.logger.Error("failed to read account", "client", client, "error", err)
		}
		return account.Account{}, false
	}
	return a, true
}

// Stats returns store counters.
func (l *Ledger) Stats(ctx context.Context) (store.Stats, error) {
	return l.store.Stats(ctx)
}

// Snapshot returns one record per known client, ordered by client id.
func (l *Ledger) Snapshot(ctx context.Context) ([]snapshot.Record, error) {
	start := time.Now()
	snapID := id.NewSnapshotID()

	records, err := l.exporter.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("txledger: snapshot: %w", err)
	}

	elapsed := time.Since(start)
	l.logger.Debug("snapshot exported",
		"snapshot_id", snapID.String(),
		"accounts", len(records),
		"elapsed", elapsed,
	)
	l.plugins.EmitSnapshotExported(ctx, snapID, len(records), elapsed)

	return records, nil
}

// ──────────────────────────────────────────────────
// Batch application
// ──────────────────────────────────────────────────

// Results applies ops lazily and yields each operation with its outcome.
// Iteration stops early if the consumer stops or ctx is done.
func (l *Ledger) Results(ctx context.Context, ops iter.Seq[operation.Operation]) iter.Seq2[operation.Operation, error] {
	return func(yield func(operation.Operation, error) bool) {
		for op := range ops {
			err := l.Apply(ctx, op)
			if !yield(op, err) {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// ApplyAll applies ops in order. Rejected operations are logged and
// skipped; the first error that is not a rejection stops the batch and is
// returned.
func (l *Ledger) ApplyAll(ctx context.Context, ops ...operation.Operation) error {
	for _, op := range ops {
		if err := l.Apply(ctx, op); err != nil && !IsRejection(err) {
			return err
		}
	}
	return nil
}
