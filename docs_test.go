package txledger_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/txledger"
	"github.com/xraph/txledger/snapshot"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation behave as described.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		l := txledger.New(txledger.WithLogger(quietLogger()))
		l.Start(ctx)
		defer l.Stop(ctx)

		if err := l.Apply(ctx, txledger.Deposit{Client: 1, Tx: 1, Amount: txledger.MustParseAmount("100")}); err != nil {
			t.Fatalf("deposit rejected: %v", err)
		}

		records, err := l.Snapshot(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].Total != txledger.FromMajor(100) {
			t.Fatalf("unexpected snapshot: %+v", records)
		}
	})

	t.Run("RejectionExample", func(t *testing.T) {
		ctx := context.Background()
		l := txledger.New(txledger.WithLogger(quietLogger()))

		err := l.Apply(ctx, txledger.Withdrawal{Client: 1, Tx: 1, Amount: txledger.FromMajor(1)})
		switch {
		case errors.Is(err, txledger.ErrInsufficientFunds):
		default:
			t.Fatalf("expected insufficient funds, got %v", err)
		}

		kind, ok := txledger.KindOf(err)
		if !ok || kind != txledger.KindInsufficientFunds {
			t.Fatalf("KindOf = %v, %v", kind, ok)
		}
	})
}

func ExampleLedger_Apply() {
	ctx := context.Background()
	l := txledger.New(txledger.WithLogger(quietLogger()))

	ops := []txledger.Operation{
		txledger.Deposit{Client: 1, Tx: 1, Amount: txledger.MustParseAmount("100.0")},
		txledger.Withdrawal{Client: 1, Tx: 2, Amount: txledger.MustParseAmount("50.0")},
		txledger.Deposit{Client: 2, Tx: 3, Amount: txledger.MustParseAmount("200.0")},
		txledger.Deposit{Client: 1, Tx: 4, Amount: txledger.MustParseAmount("200.0")},
		txledger.Withdrawal{Client: 1, Tx: 5, Amount: txledger.MustParseAmount("251.0")},
	}
	for _, op := range ops {
		if err := l.Apply(ctx, op); err != nil {
			fmt.Println(err)
		}
	}

	records, _ := l.Snapshot(ctx)
	var buf bytes.Buffer
	_ = snapshot.WriteCSV(&buf, records)
	fmt.Print(buf.String())

	// Output:
	// txledger: insufficient funds: withdrawal client=1 tx=5 amount=251.0000 available=250.0000
	// client,available,held,total,locked
	// 1,250.0000,0.0000,250.0000,false
	// 2,200.0000,0.0000,200.0000,false
}
