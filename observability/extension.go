// Package observability provides a metrics extension for the ledger engine
// that records operation outcomes through a MetricFactory.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/id"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnOperationApplied  = (*MetricsExtension)(nil)
	_ plugin.OnOperationRejected = (*MetricsExtension)(nil)
	_ plugin.OnAccountLocked     = (*MetricsExtension)(nil)
	_ plugin.OnSnapshotExported  = (*MetricsExtension)(nil)
)

// Metric names.
const (
	MetricOperationsApplied  = "txledger.operations.applied"
	MetricOperationsRejected = "txledger.operations.rejected"
	MetricAmount             = "txledger.operations.amount"
	MetricAccountsLocked     = "txledger.accounts.locked"
	MetricSnapshots          = "txledger.snapshots.exported"
	MetricSnapshotAccounts   = "txledger.snapshots.accounts"
	MetricSnapshotLatency    = "txledger.snapshots.latency_ms"
)

// MetricsExtension records engine metrics.
// Register it as a plugin to track operation outcomes automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Operation metrics, by operation kind
	Applied  map[operation.Kind]Counter
	Rejected map[operation.Kind]map[txledger.ErrorKind]Counter
	Amount   map[operation.Kind]Histogram

	// Account metrics
	AccountsLocked Counter

	// Snapshot metrics
	SnapshotsExported Counter
	SnapshotAccounts  Histogram
	SnapshotLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	m := &MetricsExtension{
		factory:  factory,
		Applied:  make(map[operation.Kind]Counter, len(operation.Kinds)),
		Rejected: make(map[operation.Kind]map[txledger.ErrorKind]Counter, len(operation.Kinds)),
		Amount:   make(map[operation.Kind]Histogram, 2),

		AccountsLocked: factory.Counter(MetricAccountsLocked),

		SnapshotsExported: factory.Counter(MetricSnapshots),
		SnapshotAccounts:  factory.Histogram(MetricSnapshotAccounts),
		SnapshotLatency:   factory.Histogram(MetricSnapshotLatency),
	}

	for _, k := range operation.Kinds {
		op := attribute.String("operation", k.String())
		m.Applied[k] = factory.Counter(MetricOperationsApplied, op)

		reasons := make(map[txledger.ErrorKind]Counter, len(txledger.ErrorKinds))
		for _, ek := range txledger.ErrorKinds {
			reasons[ek] = factory.Counter(MetricOperationsRejected, op, attribute.String("reason", ek.String()))
		}
		m.Rejected[k] = reasons

		if k.RequiresAmount() {
			m.Amount[k] = factory.Histogram(MetricAmount, op)
		}
	}

	return m
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnOperationApplied implements plugin.OnOperationApplied.
func (m *MetricsExtension) OnOperationApplied(_ context.Context, op operation.Operation, _ account.Account) error {
	m.Applied[op.Kind()].Inc()

	switch o := op.(type) {
	case operation.Deposit:
		m.Amount[o.Kind()].Observe(o.Amount.Decimal().InexactFloat64())
	case operation.Withdrawal:
		m.Amount[o.Kind()].Observe(o.Amount.Decimal().InexactFloat64())
	}
	return nil
}

// OnOperationRejected implements plugin.OnOperationRejected.
func (m *MetricsExtension) OnOperationRejected(_ context.Context, op operation.Operation, err error) error {
	if kind, ok := txledger.KindOf(err); ok {
		m.Rejected[op.Kind()][kind].Inc()
	}
	return nil
}

// OnAccountLocked implements plugin.OnAccountLocked.
func (m *MetricsExtension) OnAccountLocked(_ context.Context, _ account.Account, _ operation.Operation) error {
	m.AccountsLocked.Inc()
	return nil
}

// OnSnapshotExported implements plugin.OnSnapshotExported.
func (m *MetricsExtension) OnSnapshotExported(_ context.Context, _ id.SnapshotID, accounts int, elapsed time.Duration) error {
	m.SnapshotsExported.Inc()
	m.SnapshotAccounts.Observe(float64(accounts))
	m.SnapshotLatency.Observe(float64(elapsed.Microseconds()) / 1000)
	return nil
}
