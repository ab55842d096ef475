// Package plugin provides an extensible plugin system for the ledger engine.
// Plugins hook into engine events; a failing or slow plugin is logged and
// never affects the outcome of an operation.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/id"
	"github.com/xraph/txledger/operation"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Operation hooks
// ──────────────────────────────────────────────────

// OnOperationApplied is called after an operation has been committed.
// acct is the account state after the commit.
type OnOperationApplied interface {
	Plugin
	OnOperationApplied(ctx context.Context, op operation.Operation, acct account.Account) error
}

// OnOperationRejected is called when an operation fails validation.
// err is always a *txledger.OperationError.
type OnOperationRejected interface {
	Plugin
	OnOperationRejected(ctx context.Context, op operation.Operation, err error) error
}

// OnAccountLocked is called when a chargeback freezes an account.
type OnAccountLocked interface {
	Plugin
	OnAccountLocked(ctx context.Context, acct account.Account, op operation.Operation) error
}

// ──────────────────────────────────────────────────
// Snapshot hooks
// ──────────────────────────────────────────────────

// OnSnapshotExported is called after a snapshot has been produced.
type OnSnapshotExported interface {
	Plugin
	OnSnapshotExported(ctx context.Context, snapshotID id.SnapshotID, accounts int, elapsed time.Duration) error
}
