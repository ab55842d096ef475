package transaction

import (
	"context"

	"github.com/xraph/txledger/types"
)

type Store interface {
	GetRecord(ctx context.Context, tx types.TxID) (Record, error)
}
