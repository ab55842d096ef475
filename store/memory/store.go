// Package memory implements store.Store with in-process maps.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/store"
	"github.com/xraph/txledger/transaction"
	"github.com/xraph/txledger/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps accounts and transaction records in maps. Each engine owns its
// own Store; it is never shared between engines.
type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[types.ClientID]account.Account

	// Transaction index
	records map[types.TxID]transaction.Record
}

func New() *Store {
	return &Store{
		accounts: make(map[types.ClientID]account.Account),
		records:  make(map[types.TxID]transaction.Record),
	}
}

// Account Store implementation
func (s *Store) EnsureAccount(_ context.Context, client types.ClientID) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[client]; ok {
		return a, nil
	}
	a := account.New(client)
	s.accounts[client] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, client types.ClientID) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[client]; ok {
		return a, nil
	}
	return account.Account{}, store.ErrNotFound
}

func (s *Store) ListAccounts(_ context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, a)
	}
	slices.SortFunc(result, func(a, b account.Account) int {
		return int(a.Client) - int(b.Client)
	})
	return result, nil
}

// Transaction index implementation
func (s *Store) GetRecord(_ context.Context, tx types.TxID) (transaction.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[tx]; ok {
		return r, nil
	}
	return transaction.Record{}, store.ErrNotFound
}

// Commit validates the whole mutation before writing anything.
func (s *Store) Commit(_ context.Context, m store.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[m.Account.Client]; !ok {
		return fmt.Errorf("commit account %d: %w", m.Account.Client, store.ErrNotFound)
	}

	_, exists := s.records[m.Record.Tx]
	switch m.Action {
	case store.RecordKeep:
	case store.RecordInsert:
		if exists {
			return fmt.Errorf("commit tx %d: %w", m.Record.Tx, store.ErrAlreadyExists)
		}
	case store.RecordUpdate, store.RecordDelete:
		if !exists {
			return fmt.Errorf("commit tx %d: %w", m.Record.Tx, store.ErrNotFound)
		}
	default:
		return fmt.Errorf("commit tx %d: unknown record action %d", m.Record.Tx, m.Action)
	}

	s.accounts[m.Account.Client] = m.Account
	switch m.Action {
	case store.RecordInsert, store.RecordUpdate:
		s.records[m.Record.Tx] = m.Record
	case store.RecordDelete:
		delete(s.records, m.Record.Tx)
	}
	return nil
}

// Stats counts accounts, records and open disputes.
func (s *Store) Stats(_ context.Context) (store.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := store.Stats{Accounts: len(s.accounts), Records: len(s.records)}
	for _, r := range s.records {
		if r.Disputed() {
			st.Disputed++
		}
	}
	return st, nil
}
