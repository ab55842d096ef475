package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/ingest"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sample = `type,client,tx,amount
deposit,1,1,1.0
deposit,2,2,2.0
deposit,1,3,2.0
withdrawal,1,4,1.5
withdrawal,2,5,3.0
dispute,1,1,
chargeback,1,1,
deposit,1,6,10
bogus,1,7,1
deposit,3,8,
`

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	l := txledger.New(txledger.WithLogger(quietLogger()))
	p := ingest.NewPipeline(l, ingest.WithLogger(quietLogger()), ingest.WithBuffer(1))

	report, err := p.Run(ctx, strings.NewReader(sample))
	require.NoError(t, err)

	assert.False(t, report.RunID.IsNil())
	assert.Equal(t, map[operation.Kind]int{
		operation.KindDeposit:    3,
		operation.KindWithdrawal: 1,
		operation.KindDispute:    1,
		operation.KindChargeback: 1,
	}, report.Applied)
	assert.Equal(t, map[txledger.ErrorKind]int{
		txledger.KindInsufficientFunds: 1,
		txledger.KindAccountLocked:     1,
	}, report.Rejected)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 6, report.TotalApplied())
	assert.Equal(t, 2, report.TotalRejected())

	records, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, types.MustParseAmount("0.5"), records[0].Available)
	assert.True(t, records[0].Held.IsZero())
	assert.True(t, records[0].Locked)
	assert.Equal(t, types.MustParseAmount("2"), records[1].Total)
	assert.False(t, records[1].Locked)
}

func TestPipelineUnbuffered(t *testing.T) {
	l := txledger.New(txledger.WithLogger(quietLogger()))
	report, err := ingest.NewPipeline(l, ingest.WithLogger(quietLogger()), ingest.WithBuffer(0)).
		Run(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 6, report.TotalApplied())
}

func TestPipelineHeaderError(t *testing.T) {
	l := txledger.New(txledger.WithLogger(quietLogger()))
	_, err := ingest.NewPipeline(l, ingest.WithLogger(quietLogger())).
		Run(context.Background(), strings.NewReader("nope\n"))
	require.ErrorIs(t, err, ingest.ErrHeader)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestPipelineReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	l := txledger.New(txledger.WithLogger(quietLogger()))

	r := io.MultiReader(strings.NewReader("type,client,tx,amount\ndeposit,1,1,1\n"), failingReader{err: boom})
	report, err := ingest.NewPipeline(l, ingest.WithLogger(quietLogger())).Run(context.Background(), r)
	require.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, report.TotalApplied(), 1)
}

func TestPipelineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := txledger.New(txledger.WithLogger(quietLogger()))
	report, err := ingest.NewPipeline(l, ingest.WithLogger(quietLogger())).Run(ctx, strings.NewReader(sample))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.TotalApplied())
}
