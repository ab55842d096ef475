package txledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/transaction"
	"github.com/xraph/txledger/types"
)

// Sentinel errors, one per rejection kind. Every *OperationError unwraps to
// exactly one of these.
var (
	// Funding errors
	ErrInvalidAmount        = errors.New("txledger: invalid amount")
	ErrDuplicateTransaction = errors.New("txledger: duplicate transaction")
	ErrAccountLocked        = errors.New("txledger: account is locked")
	ErrInsufficientFunds    = errors.New("txledger: insufficient funds")

	// Dispute lifecycle errors
	ErrTransactionNotFound = errors.New("txledger: transaction not found")
	ErrClientMismatch      = errors.New("txledger: transaction belongs to another client")
	ErrInvalidDisputeState = errors.New("txledger: invalid dispute state")
)

// ErrorKind is the closed set of reasons an operation can be rejected.
type ErrorKind uint8

const (
	KindInvalidAmount ErrorKind = iota + 1
	KindDuplicateTransaction
	KindAccountLocked
	KindInsufficientFunds
	KindTransactionNotFound
	KindClientMismatch
	KindInvalidDisputeState
)

// ErrorKinds lists every rejection kind in declaration order.
var ErrorKinds = []ErrorKind{
	KindInvalidAmount,
	KindDuplicateTransaction,
	KindAccountLocked,
	KindInsufficientFunds,
	KindTransactionNotFound,
	KindClientMismatch,
	KindInvalidDisputeState,
}

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindInvalidAmount:
		return ErrInvalidAmount
	case KindDuplicateTransaction:
		return ErrDuplicateTransaction
	case KindAccountLocked:
		return ErrAccountLocked
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindTransactionNotFound:
		return ErrTransactionNotFound
	case KindClientMismatch:
		return ErrClientMismatch
	case KindInvalidDisputeState:
		return ErrInvalidDisputeState
	}
	return nil
}

// String returns a snake_case name suitable for log fields and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidAmount:
		return "invalid_amount"
	case KindDuplicateTransaction:
		return "duplicate_transaction"
	case KindAccountLocked:
		return "account_locked"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindTransactionNotFound:
		return "transaction_not_found"
	case KindClientMismatch:
		return "client_mismatch"
	case KindInvalidDisputeState:
		return "invalid_dispute_state"
	}
	return fmt.Sprintf("error_kind(%d)", uint8(k))
}

// OperationError describes why a single operation was rejected. Only the
// fields relevant to Kind are meaningful:
//
//   - Amount: the offending amount (InvalidAmount, InsufficientFunds)
//   - Available: the balance at the time (InsufficientFunds)
//   - Owner: the client that owns Tx (ClientMismatch)
//   - State: the record's state (InvalidDisputeState)
type OperationError struct {
	Kind      ErrorKind
	Op        operation.Kind
	Client    types.ClientID
	Tx        types.TxID
	Amount    types.Amount
	Available types.Amount
	Owner     types.ClientID
	State     transaction.DisputeState
	Detail    string
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Sentinel().Error())
	fmt.Fprintf(&b, ": %s client=%d tx=%d", e.Op, e.Client, e.Tx)

	switch e.Kind {
	case KindInvalidAmount:
		fmt.Fprintf(&b, " amount=%s", e.Amount)
	case KindInsufficientFunds:
		fmt.Fprintf(&b, " amount=%s available=%s", e.Amount, e.Available)
	case KindClientMismatch:
		fmt.Fprintf(&b, " owner=%d", e.Owner)
	case KindInvalidDisputeState:
		fmt.Fprintf(&b, " state=%s", e.State)
	}

	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the kind's sentinel so errors.Is works against it.
func (e *OperationError) Unwrap() error {
	return e.Kind.Sentinel()
}

// KindOf extracts the rejection kind from err.
func KindOf(err error) (ErrorKind, bool) {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return 0, false
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("txledger: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "txledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("txledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e if it holds any errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsRejection returns true if err is a per-operation rejection.
func IsRejection(err error) bool {
	_, ok := KindOf(err)
	return ok
}

// IsBalanceError returns true if the operation was rejected because of the
// account's balance or lock state.
func IsBalanceError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAccountLocked)
}

// IsReferenceError returns true if the operation referenced a transaction
// that is missing, foreign, duplicated, or in the wrong dispute state.
func IsReferenceError(err error) bool {
	return errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrClientMismatch) ||
		errors.Is(err, ErrInvalidDisputeState)
}
