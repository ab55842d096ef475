package operation

import "fmt"

// Visitor handles every operation variant. Adding a variant adds a method
// here, so every implementation stops compiling until it handles it.
type Visitor[R any] interface {
	VisitDeposit(Deposit) R
	VisitWithdrawal(Withdrawal) R
	VisitDispute(Dispute) R
	VisitResolve(Resolve) R
	VisitChargeback(Chargeback) R
}

// Match dispatches op to the matching Visitor method.
func Match[R any](op Operation, v Visitor[R]) R {
	switch o := op.(type) {
	case Deposit:
		return v.VisitDeposit(o)
	case Withdrawal:
		return v.VisitWithdrawal(o)
	case Dispute:
		return v.VisitDispute(o)
	case Resolve:
		return v.VisitResolve(o)
	case Chargeback:
		return v.VisitChargeback(o)
	case *Deposit:
		return v.VisitDeposit(*o)
	case *Withdrawal:
		return v.VisitWithdrawal(*o)
	case *Dispute:
		return v.VisitDispute(*o)
	case *Resolve:
		return v.VisitResolve(*o)
	case *Chargeback:
		return v.VisitChargeback(*o)
	}
	// Unreachable: Operation is sealed.
	panic(fmt.Sprintf("operation: unhandled variant %T", op))
}
