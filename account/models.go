// Package account holds the per-client balance record.
package account

import "github.com/xraph/txledger/types"

// Account is the balance state of one client.
type Account struct {
	Client    types.ClientID `json:"client"`
	Available types.Amount   `json:"available"`
	Held      types.Amount   `json:"held"`
	Locked    bool           `json:"locked"`
}

// New returns the default state of a client seen for the first time.
func New(client types.ClientID) Account {
	return Account{Client: client}
}

// Total is Available + Held. It is derived, never stored.
func (a Account) Total() types.Amount {
	return a.Available.Add(a.Held)
}
