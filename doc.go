// Package txledger provides a client ledger engine for Go applications.
//
// The engine consumes a stream of typed operations (deposits, withdrawals,
// disputes, resolves and chargebacks), keeps per-client balances and a
// record of every accepted deposit and withdrawal, and can export the
// current state of every client at any point. It provides:
//
//   - Exact fixed-point money with four fractional digits
//   - Atomic, validated application of each operation
//   - A dispute lifecycle with held funds and account locking
//   - Plugin hooks for applied, rejected and locking events
//   - Metrics via OpenTelemetry (package observability)
//   - A streaming CSV ingest pipeline (package ingest)
//
// # Quick Start
//
//	l := txledger.New()
//
//	err := l.Apply(ctx, txledger.Deposit{Client: 1, Tx: 1, Amount: txledger.MustParseAmount("100")})
//	if err != nil {
//	    // the deposit was rejected; state is unchanged
//	}
//
//	records, err := l.Snapshot(ctx)
//
// # Rejections
//
// Apply returns an *OperationError when an operation is rejected. Rejections
// never stop processing; the caller decides whether to log, count or ignore
// them. Match on the kind with errors.Is:
//
//	switch {
//	case errors.Is(err, txledger.ErrInsufficientFunds):
//	case errors.Is(err, txledger.ErrAccountLocked):
//	}
//
// or extract it with KindOf.
//
// # Accounts
//
// An account is created with zero balances the first time any operation
// names its client, even if that operation is then rejected. Once a
// chargeback locks an account, deposits and withdrawals on it are rejected.
// WithLockPolicy(LockBlocksAll) extends that to every operation kind.
//
// # Concurrency
//
// A Ledger applies operations sequentially and must be driven from one
// goroutine. Use package ingest to overlap decoding with application.
package txledger
