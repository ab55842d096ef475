package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/id"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/plugin"
	"github.com/xraph/txledger/types"
)

type recorder struct {
	name string

	mu       sync.Mutex
	applied  []operation.Operation
	rejected []error
	locked   []types.ClientID
	exports  []int
	inits    int
	shutdown int
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnInit(context.Context, any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits++
	return nil
}

func (r *recorder) OnShutdown(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown++
	return nil
}

func (r *recorder) OnOperationApplied(_ context.Context, op operation.Operation, _ account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, op)
	return nil
}

func (r *recorder) OnOperationRejected(_ context.Context, _ operation.Operation, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, err)
	return nil
}

func (r *recorder) OnAccountLocked(_ context.Context, acct account.Account, _ operation.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, acct.Client)
	return nil
}

func (r *recorder) OnSnapshotExported(_ context.Context, _ id.SnapshotID, accounts int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, accounts)
	return nil
}

// appliedOnly implements a single hook.
type appliedOnly struct {
	calls int
	fail  bool
}

func (*appliedOnly) Name() string { return "applied-only" }

func (a *appliedOnly) OnOperationApplied(context.Context, operation.Operation, account.Account) error {
	a.calls++
	if a.fail {
		return errors.New("boom")
	}
	return nil
}

type slow struct{ release chan struct{} }

func (slow) Name() string { return "slow" }

func (s slow) OnOperationApplied(context.Context, operation.Operation, account.Account) error {
	<-s.release
	return nil
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }

func (panicky) OnOperationApplied(context.Context, operation.Operation, account.Account) error {
	panic("unexpected")
}

func quietRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegisterDuplicate(t *testing.T) {
	r := quietRegistry()
	require.NoError(t, r.Register(&recorder{name: "rec"}))

	err := r.Register(&recorder{name: "rec"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate registration")
	assert.Equal(t, 1, r.Count())
}

func TestGetAndList(t *testing.T) {
	r := quietRegistry()
	a := &recorder{name: "a"}
	b := &appliedOnly{}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	assert.Same(t, a, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 2)
}

func TestEmitDispatchesByInterface(t *testing.T) {
	ctx := context.Background()
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	only := &appliedOnly{}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(only))

	dep := operation.Deposit{Client: 1, Tx: 1, Amount: types.FromMajor(1)}
	acct := account.New(1)

	r.EmitInit(ctx, nil)
	r.EmitOperationApplied(ctx, dep, acct)
	r.EmitOperationRejected(ctx, dep, errors.New("rejected"))
	r.EmitAccountLocked(ctx, acct, operation.Chargeback{Client: 1, Tx: 1})
	r.EmitSnapshotExported(ctx, id.NewSnapshotID(), 3, time.Millisecond)
	r.EmitShutdown(ctx)

	assert.Equal(t, 1, rec.inits)
	assert.Equal(t, []operation.Operation{dep}, rec.applied)
	assert.Len(t, rec.rejected, 1)
	assert.Equal(t, []types.ClientID{1}, rec.locked)
	assert.Equal(t, []int{3}, rec.exports)
	assert.Equal(t, 1, rec.shutdown)

	assert.Equal(t, 1, only.calls)
}

func TestHookFailureDoesNotStopFanOut(t *testing.T) {
	r := quietRegistry()
	failing := &appliedOnly{fail: true}
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(rec))

	r.EmitOperationApplied(context.Background(), operation.Dispute{Client: 1, Tx: 1}, account.New(1))

	assert.Equal(t, 1, failing.calls)
	assert.Len(t, rec.applied, 1)
}

func TestHookTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(10 * time.Millisecond)
	s := slow{release: make(chan struct{})}
	defer close(s.release)
	require.NoError(t, r.Register(s))

	start := time.Now()
	r.EmitOperationApplied(context.Background(), operation.Dispute{Client: 1, Tx: 1}, account.New(1))
	assert.Less(t, time.Since(start), time.Second)
}

func TestHookPanicIsContained(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(panicky{}))
	require.NoError(t, r.Register(rec))

	assert.NotPanics(t, func() {
		r.EmitOperationApplied(context.Background(), operation.Dispute{Client: 1, Tx: 1}, account.New(1))
	})
	assert.Len(t, rec.applied, 1)
}
