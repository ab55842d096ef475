package account

import (
	"context"

	"github.com/xraph/txledger/types"
)

type Store interface {
	EnsureAccount(ctx context.Context, client types.ClientID) (Account, error)
	GetAccount(ctx context.Context, client types.ClientID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
}
