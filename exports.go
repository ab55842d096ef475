package txledger

import (
	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/snapshot"
	"github.com/xraph/txledger/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages for everyday use.

// Amount is re-exported from types package.
type Amount = types.Amount

// ClientID is re-exported from types package.
type ClientID = types.ClientID

// TxID is re-exported from types package.
type TxID = types.TxID

// Operation is re-exported from operation package.
type Operation = operation.Operation

// Operation variants.
type (
	Deposit    = operation.Deposit
	Withdrawal = operation.Withdrawal
	Dispute    = operation.Dispute
	Resolve    = operation.Resolve
	Chargeback = operation.Chargeback
)

// AccountState is re-exported from account package.
type AccountState = account.Account

// ClientRecord is one row of a snapshot.
type ClientRecord = snapshot.Record

// Re-export Amount constructors
var (
	ParseAmount     = types.ParseAmount
	MustParseAmount = types.MustParseAmount
	FromMajor       = types.FromMajor
)

// Zero is the zero Amount.
const Zero = types.Zero
