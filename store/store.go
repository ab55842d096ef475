// Package store defines the storage contract behind the ledger engine: an
// account store and a transaction index that change together, atomically.
package store

import (
	"context"
	"errors"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/transaction"
	"github.com/xraph/txledger/types"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// RecordAction says what a Mutation does to the transaction index.
type RecordAction uint8

const (
	RecordKeep   RecordAction = iota // leave the index untouched
	RecordInsert                     // add a new record; fails if the tx exists
	RecordUpdate                     // replace an existing record
	RecordDelete                     // remove an existing record
)

// Mutation is the complete effect of one applied operation: the new state of
// one account plus at most one change to the transaction index.
type Mutation struct {
	Account account.Account
	Action  RecordAction
	Record  transaction.Record
}

// Stats summarizes store contents.
type Stats struct {
	Accounts int `json:"accounts"`
	Records  int `json:"records"`
	Disputed int `json:"disputed"`
}

// Store is the unified storage interface used by the engine.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to keep the contract readable in one place.
type Store interface {
	// Account methods
	EnsureAccount(ctx context.Context, client types.ClientID) (account.Account, error)
	GetAccount(ctx context.Context, client types.ClientID) (account.Account, error)
	ListAccounts(ctx context.Context) ([]account.Account, error)

	// Transaction index methods
	GetRecord(ctx context.Context, tx types.TxID) (transaction.Record, error)

	// Commit applies m in full or not at all.
	Commit(ctx context.Context, m Mutation) error

	Stats(ctx context.Context) (Stats, error)
}

// compile-time checks that Store satisfies the per-domain contracts
var (
	_ account.Store     = (Store)(nil)
	_ transaction.Store = (Store)(nil)
)
