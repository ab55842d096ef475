// Package operation defines the typed input events the ledger applies.
//
// Operation is a sealed sum type: the five variants below are the only
// implementations, and Visitor forces exhaustive handling of all of them.
package operation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/txledger/types"
)

// Kind identifies an operation variant.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

// ErrUnknownKind is returned for names or values outside the five kinds.
var ErrUnknownKind = errors.New("operation: unknown kind")

// Kinds lists every operation kind in declaration order.
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback}

// String returns the wire name of the kind ("deposit", "withdrawal", ...).
func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindDispute:
		return "dispute"
	case KindResolve:
		return "resolve"
	case KindChargeback:
		return "chargeback"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a wire name to a Kind. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return KindDeposit, nil
	case "withdrawal":
		return KindWithdrawal, nil
	case "dispute":
		return KindDispute, nil
	case "resolve":
		return KindResolve, nil
	case "chargeback":
		return KindChargeback, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// RequiresAmount reports whether operations of this kind carry an amount.
func (k Kind) RequiresAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Operation is one decoded input event. Values are immutable.
type Operation interface {
	Kind() Kind
	ClientID() types.ClientID
	TxID() types.TxID
	fmt.Stringer

	sealed()
}

// Deposit credits Amount to the client's available funds.
type Deposit struct {
	Client types.ClientID `json:"client"`
	Tx     types.TxID     `json:"tx"`
	Amount types.Amount   `json:"amount"`
}

// Withdrawal debits Amount from the client's available funds.
type Withdrawal struct {
	Client types.ClientID `json:"client"`
	Tx     types.TxID     `json:"tx"`
	Amount types.Amount   `json:"amount"`
}

// Dispute contests an earlier deposit or withdrawal.
type Dispute struct {
	Client types.ClientID `json:"client"`
	Tx     types.TxID     `json:"tx"`
}

// Resolve closes a dispute in the client's favour.
type Resolve struct {
	Client types.ClientID `json:"client"`
	Tx     types.TxID     `json:"tx"`
}

// Chargeback closes a dispute against the client and locks the account.
type Chargeback struct {
	Client types.ClientID `json:"client"`
	Tx     types.TxID     `json:"tx"`
}

func (Deposit) Kind() Kind    { return KindDeposit }
func (Withdrawal) Kind() Kind { return KindWithdrawal }
func (Dispute) Kind() Kind    { return KindDispute }
func (Resolve) Kind() Kind    { return KindResolve }
func (Chargeback) Kind() Kind { return KindChargeback }

func (o Deposit) ClientID() types.ClientID    { return o.Client }
func (o Withdrawal) ClientID() types.ClientID { return o.Client }
func (o Dispute) ClientID() types.ClientID    { return o.Client }
func (o Resolve) ClientID() types.ClientID    { return o.Client }
func (o Chargeback) ClientID() types.ClientID { return o.Client }

func (o Deposit) TxID() types.TxID    { return o.Tx }
func (o Withdrawal) TxID() types.TxID { return o.Tx }
func (o Dispute) TxID() types.TxID    { return o.Tx }
func (o Resolve) TxID() types.TxID    { return o.Tx }
func (o Chargeback) TxID() types.TxID { return o.Tx }

func (o Deposit) String() string {
	return fmt.Sprintf("deposit{client=%d tx=%d amount=%s}", o.Client, o.Tx, o.Amount)
}

func (o Withdrawal) String() string {
	return fmt.Sprintf("withdrawal{client=%d tx=%d amount=%s}", o.Client, o.Tx, o.Amount)
}

func (o Dispute) String() string    { return fmt.Sprintf("dispute{client=%d tx=%d}", o.Client, o.Tx) }
func (o Resolve) String() string    { return fmt.Sprintf("resolve{client=%d tx=%d}", o.Client, o.Tx) }
func (o Chargeback) String() string { return fmt.Sprintf("chargeback{client=%d tx=%d}", o.Client, o.Tx) }

func (Deposit) sealed()    {}
func (Withdrawal) sealed() {}
func (Dispute) sealed()    {}
func (Resolve) sealed()    {}
func (Chargeback) sealed() {}

// New builds an operation of the given kind. amount is ignored for kinds
// that do not carry one.
func New(kind Kind, client types.ClientID, tx types.TxID, amount types.Amount) (Operation, error) {
	switch kind {
	case KindDeposit:
		return Deposit{Client: client, Tx: tx, Amount: amount}, nil
	case KindWithdrawal:
		return Withdrawal{Client: client, Tx: tx, Amount: amount}, nil
	case KindDispute:
		return Dispute{Client: client, Tx: tx}, nil
	case KindResolve:
		return Resolve{Client: client, Tx: tx}, nil
	case KindChargeback:
		return Chargeback{Client: client, Tx: tx}, nil
	}
	return nil, fmt.Errorf("%w %s", ErrUnknownKind, kind)
}
