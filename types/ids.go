package types

import (
	"fmt"
	"strconv"
)

// ClientID identifies a client account. Distinct per client.
type ClientID uint16

// TxID identifies a deposit or withdrawal. The namespace is global: two
// clients never share a TxID.
type TxID uint32

// ParseClientID parses a base-10 client identifier.
func ParseClientID(s string) (ClientID, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("client id %q: %w", s, err)
	}
	return ClientID(v), nil
}

// ParseTxID parses a base-10 transaction identifier.
func ParseTxID(s string) (TxID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("tx id %q: %w", s, err)
	}
	return TxID(v), nil
}
