// Package transaction holds the records the ledger keeps for every accepted
// deposit and withdrawal, keyed by transaction id.
package transaction

import "github.com/xraph/txledger/types"

// DisputeState is the dispute status of a Record.
type DisputeState uint8

const (
	NotDisputed DisputeState = iota
	Disputed
)

func (s DisputeState) String() string {
	if s == Disputed {
		return "disputed"
	}
	return "not_disputed"
}

// Record is the ledger index entry for an accepted deposit or withdrawal.
// Amount is positive for deposits and negative for withdrawals; the sign
// chosen at creation drives all later dispute arithmetic.
type Record struct {
	Tx     types.TxID     `json:"tx"`
	Client types.ClientID `json:"client"`
	Amount types.Amount   `json:"amount"`
	State  DisputeState   `json:"state"`
}

// FromDeposit reports whether the record originated from a deposit.
func (r Record) FromDeposit() bool {
	return !r.Amount.IsNegative()
}

// Disputed reports whether the record is currently under dispute.
func (r Record) Disputed() bool {
	return r.State == Disputed
}
