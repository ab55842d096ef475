package txledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/store"
	"github.com/xraph/txledger/transaction"
	"github.com/xraph/txledger/types"
)

// Apply applies a single operation. It returns nil on success, an
// *OperationError if the operation was rejected, or a wrapped store or
// context error. A rejected operation leaves every balance and record as it
// was; only the referenced client's account may have been created.
func (l *Ledger) Apply(ctx context.Context, op operation.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	acct, err := l.store.EnsureAccount(ctx, op.ClientID())
	if err != nil {
		return fmt.Errorf("txledger: load account %d: %w", op.ClientID(), err)
	}

	a := &applier{ctx: ctx, store: l.store, policy: l.lockPolicy, acct: acct}
	out := operation.Match[outcome](op, a)

	if out.err != nil {
		var oe *OperationError
		if errors.As(out.err, &oe) {
			l.logger.Debug("operation rejected",
				"op", op.Kind().String(),
				"client", op.ClientID(),
				"tx", op.TxID(),
				"kind", oe.Kind.String(),
				"error", out.err,
			)
			l.plugins.EmitOperationRejected(ctx, op, out.err)
		}
		return out.err
	}

	if err := l.store.Commit(ctx, out.mutation); err != nil {
		return fmt.Errorf("txledger: commit %s: %w", op, err)
	}

	next := out.mutation.Account
	l.plugins.EmitOperationApplied(ctx, op, next)

	if next.Locked && !acct.Locked {
		l.logger.Info("account locked",
			"client", next.Client,
			"tx", op.TxID(),
		)
		l.plugins.EmitAccountLocked(ctx, next, op)
	}

	return nil
}

type outcome struct {
	mutation store.Mutation
	err      error
}

// applier validates one operation against a copy of its account and turns
// it into a store mutation. It never writes.
type applier struct {
	ctx    context.Context //nolint:containedctx // scoped to a single Apply call
	store  store.Store
	policy LockPolicy
	acct   account.Account
}

var _ operation.Visitor[outcome] = (*applier)(nil)

func reject(kind ErrorKind, op operation.Operation) *OperationError {
	return &OperationError{
		Kind:   kind,
		Op:     op.Kind(),
		Client: op.ClientID(),
		Tx:     op.TxID(),
	}
}

func rejected(err *OperationError) outcome {
	return outcome{err: err}
}

func overflow(op operation.Operation, amount types.Amount) outcome {
	e := reject(KindInvalidAmount, op)
	e.Amount = amount
	e.Detail = "balance overflow"
	return rejected(e)
}

// accept builds the mutation, refusing any account whose total would not
// be representable.
func (a *applier) accept(op operation.Operation, next account.Account, action store.RecordAction, rec transaction.Record) outcome {
	if _, ok := next.Available.CheckedAdd(next.Held); !ok {
		return overflow(op, rec.Amount)
	}
	return outcome{mutation: store.Mutation{Account: next, Action: action, Record: rec}}
}

// lookup returns the record for tx, reporting false if there is none.
func (a *applier) lookup(tx types.TxID) (transaction.Record, bool, error) {
	rec, err := a.store.GetRecord(a.ctx, tx)
	if errors.Is(err, store.ErrNotFound) {
		return transaction.Record{}, false, nil
	}
	if err != nil {
		return transaction.Record{}, false, fmt.Errorf("txledger: load transaction %d: %w", tx, err)
	}
	return rec, true, nil
}

// checkFunding runs the checks shared by deposits and withdrawals up to the
// lock check.
func (a *applier) checkFunding(op operation.Operation, amount types.Amount) *OperationError {
	if amount.IsNegative() {
		e := reject(KindInvalidAmount, op)
		e.Amount = amount
		return e
	}
	if a.acct.Locked {
		return reject(KindAccountLocked, op)
	}
	return nil
}

// checkDuplicate rejects op if its transaction id is already taken by any
// client.
func (a *applier) checkDuplicate(op operation.Operation) (*OperationError, error) {
	_, found, err := a.lookup(op.TxID())
	if err != nil {
		return nil, err
	}
	if found {
		return reject(KindDuplicateTransaction, op), nil
	}
	return nil, nil
}

// disputed loads the record a dispute-lifecycle operation refers to and
// checks its owner and state. wantDisputed is the state the record must be in.
func (a *applier) disputed(op operation.Operation, wantDisputed bool) (transaction.Record, outcome, bool) {
	if a.policy == LockBlocksAll && a.acct.Locked {
		return transaction.Record{}, rejected(reject(KindAccountLocked, op)), false
	}

	rec, found, err := a.lookup(op.TxID())
	if err != nil {
		return rec, outcome{err: err}, false
	}
	if !found {
		return rec, rejected(reject(KindTransactionNotFound, op)), false
	}
	if rec.Client != op.ClientID() {
		e := reject(KindClientMismatch, op)
		e.Owner = rec.Client
		return rec, rejected(e), false
	}
	if rec.Disputed() != wantDisputed {
		e := reject(KindInvalidDisputeState, op)
		e.State = rec.State
		return rec, rejected(e), false
	}
	return rec, outcome{}, true
}

func (a *applier) VisitDeposit(op operation.Deposit) outcome {
	if e := a.checkFunding(op, op.Amount); e != nil {
		return rejected(e)
	}
	if e, err := a.checkDuplicate(op); err != nil || e != nil {
		return outcome{err: errOrRejection(err, e)}
	}

	next := a.acct
	avail, ok := next.Available.CheckedAdd(op.Amount)
	if !ok {
		return overflow(op, op.Amount)
	}
	next.Available = avail

	return a.accept(op, next, store.RecordInsert, transaction.Record{
		Tx:     op.Tx,
		Client: op.Client,
		Amount: op.Amount,
		State:  transaction.NotDisputed,
	})
}

func (a *applier) VisitWithdrawal(op operation.Withdrawal) outcome {
	if e := a.checkFunding(op, op.Amount); e != nil {
		return rejected(e)
	}
	if a.acct.Available.LessThan(op.Amount) {
		e := reject(KindInsufficientFunds, op)
		e.Amount = op.Amount
		e.Available = a.acct.Available
		return rejected(e)
	}
	if e, err := a.checkDuplicate(op); err != nil || e != nil {
		return outcome{err: errOrRejection(err, e)}
	}

	next := a.acct
	next.Available = next.Available.Sub(op.Amount)

	return a.accept(op, next, store.RecordInsert, transaction.Record{
		Tx:     op.Tx,
		Client: op.Client,
		Amount: op.Amount.Neg(),
		State:  transaction.NotDisputed,
	})
}

func (a *applier) VisitDispute(op operation.Dispute) outcome {
	rec, out, ok := a.disputed(op, false)
	if !ok {
		return out
	}

	next := a.acct
	if rec.FromDeposit() {
		avail, ok1 := next.Available.CheckedSub(rec.Amount)
		held, ok2 := next.Held.CheckedAdd(rec.Amount)
		if !ok1 || !ok2 {
			return overflow(op, rec.Amount)
		}
		next.Available, next.Held = avail, held
	}

	rec.State = transaction.Disputed
	return a.accept(op, next, store.RecordUpdate, rec)
}

func (a *applier) VisitResolve(op operation.Resolve) outcome {
	rec, out, ok := a.disputed(op, true)
	if !ok {
		return out
	}

	next := a.acct
	if rec.FromDeposit() {
		avail, ok1 := next.Available.CheckedAdd(rec.Amount)
		held, ok2 := next.Held.CheckedSub(rec.Amount)
		if !ok1 || !ok2 {
			return overflow(op, rec.Amount)
		}
		next.Available, next.Held = avail, held
	}

	return a.accept(op, next, store.RecordDelete, rec)
}

func (a *applier) VisitChargeback(op operation.Chargeback) outcome {
	rec, out, ok := a.disputed(op, true)
	if !ok {
		return out
	}

	next := a.acct
	if rec.FromDeposit() {
		held, ok := next.Held.CheckedSub(rec.Amount)
		if !ok {
			return overflow(op, rec.Amount)
		}
		next.Held = held
	} else {
		// rec.Amount is negative: the withdrawn funds come back.
		avail, ok := next.Available.CheckedSub(rec.Amount)
		if !ok {
			return overflow(op, rec.Amount)
		}
		next.Available = avail
	}
	next.Locked = true

	return a.accept(op, next, store.RecordDelete, rec)
}

func errOrRejection(err error, e *OperationError) error {
	if err != nil {
		return err
	}
	return e
}
