package ingest_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/txledger/ingest"
	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/types"
)

// decodeAll drains the decoder, collecting operations and row errors.
func decodeAll(t *testing.T, input string) ([]operation.Operation, []*ingest.RowError) {
	t.Helper()

	dec := ingest.NewDecoder(strings.NewReader(input))
	var ops []operation.Operation
	var rowErrs []*ingest.RowError
	for {
		op, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return ops, rowErrs
		}
		var rowErr *ingest.RowError
		if errors.As(err, &rowErr) {
			rowErrs = append(rowErrs, rowErr)
			continue
		}
		require.NoError(t, err)
		ops = append(ops, op)
	}
}

func TestDecode(t *testing.T) {
	input := `type, client, tx, amount
deposit, 1, 1, 1.0
# a comment
withdrawal,   2, 2,   0.5
dispute, 1, 1,
resolve, 1, 1
chargeback,1,1

DEPOSIT, 65535, 4294967295, 0.0001
`
	ops, rowErrs := decodeAll(t, input)
	require.Empty(t, rowErrs)

	assert.Equal(t, []operation.Operation{
		operation.Deposit{Client: 1, Tx: 1, Amount: types.MustParseAmount("1")},
		operation.Withdrawal{Client: 2, Tx: 2, Amount: types.MustParseAmount("0.5")},
		operation.Dispute{Client: 1, Tx: 1},
		operation.Resolve{Client: 1, Tx: 1},
		operation.Chargeback{Client: 1, Tx: 1},
		operation.Deposit{Client: 65535, Tx: 4294967295, Amount: types.Units(1)},
	}, ops)
}

func TestDecodeColumnOrder(t *testing.T) {
	ops, rowErrs := decodeAll(t, "amount,tx,client,type\n2.5,7,3,deposit\n")
	require.Empty(t, rowErrs)
	assert.Equal(t, []operation.Operation{
		operation.Deposit{Client: 3, Tx: 7, Amount: types.MustParseAmount("2.5")},
	}, ops)
}

func TestDecodeNegativeAmountPassesThrough(t *testing.T) {
	ops, rowErrs := decodeAll(t, "type,client,tx,amount\ndeposit,1,1,-5.0\n")
	require.Empty(t, rowErrs)
	assert.Equal(t, []operation.Operation{
		operation.Deposit{Client: 1, Tx: 1, Amount: types.MustParseAmount("-5")},
	}, ops)
}

func TestDecodeRowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want error
	}{
		{"unknown type", "transfer,1,1,1.0", operation.ErrUnknownKind},
		{"missing amount", "deposit,1,1,", ingest.ErrMissingAmount},
		{"short row", "withdrawal,1,1", ingest.ErrMissingAmount},
		{"missing type", ",1,1,1.0", ingest.ErrMissingField},
		{"missing client", "deposit,,1,1.0", ingest.ErrMissingField},
		{"too precise", "deposit,1,1,1.00001", types.ErrAmountPrecision},
		{"not a number", "deposit,1,1,abc", types.ErrAmountSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, rowErrs := decodeAll(t, "type,client,tx,amount\n"+tt.row+"\ndeposit,9,9,1\n")
			require.Len(t, rowErrs, 1)
			assert.Equal(t, 2, rowErrs[0].Line)
			assert.ErrorIs(t, rowErrs[0], tt.want)

			// The decoder keeps going after a bad row.
			require.Len(t, ops, 1)
			assert.Equal(t, types.ClientID(9), ops[0].ClientID())
		})
	}
}

func TestDecodeOutOfRangeIDs(t *testing.T) {
	_, rowErrs := decodeAll(t, "type,client,tx,amount\ndeposit,65536,1,1\ndeposit,1,4294967296,1\ndeposit,-1,1,1\n")
	require.Len(t, rowErrs, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{rowErrs[0].Line, rowErrs[1].Line, rowErrs[2].Line})
}

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing tx column", "type,client,amount\ndeposit,1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.NewDecoder(strings.NewReader(tt.input)).Decode()
			require.ErrorIs(t, err, ingest.ErrHeader)
		})
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	_, err := ingest.NewDecoder(strings.NewReader("type,client,tx,amount\n")).Decode()
	require.ErrorIs(t, err, io.EOF)
}
