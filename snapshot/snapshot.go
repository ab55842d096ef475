// Package snapshot turns account state into the exported client table.
package snapshot

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xraph/txledger/account"
	"github.com/xraph/txledger/types"
)

// Header is the column order written by WriteCSV.
var Header = []string{"client", "available", "held", "total", "locked"}

// Record is one row of the exported table.
type Record struct {
	Client    types.ClientID `json:"client"`
	Available types.Amount   `json:"available"`
	Held      types.Amount   `json:"held"`
	Total     types.Amount   `json:"total"`
	Locked    bool           `json:"locked"`
}

// FromAccount derives a Record from an account.
func FromAccount(a account.Account) Record {
	return Record{
		Client:    a.Client,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// Lister is the read side the exporter needs.
type Lister interface {
	// ListAccounts returns every known account ordered by client id.
	ListAccounts(ctx context.Context) ([]account.Account, error)
}

// Exporter reads all accounts and renders them as Records. It never
// modifies the source.
type Exporter struct {
	src Lister
}

// NewExporter creates an exporter over src.
func NewExporter(src Lister) *Exporter {
	return &Exporter{src: src}
}

// Export returns one Record per known client, in client order.
func (e *Exporter) Export(ctx context.Context) ([]Record, error) {
	accounts, err := e.src.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list accounts: %w", err)
	}

	records := make([]Record, len(accounts))
	for i, a := range accounts {
		records[i] = FromAccount(a)
	}
	return records, nil
}

// WriteCSV writes records as a CSV table with a header row. Amounts carry
// exactly four fractional digits.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	row := make([]string, len(Header))
	for _, r := range records {
		row[0] = strconv.FormatUint(uint64(r.Client), 10)
		row[1] = r.Available.String()
		row[2] = r.Held.String()
		row[3] = r.Total.String()
		row[4] = strconv.FormatBool(r.Locked)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("snapshot: write client %d: %w", r.Client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	return nil
}
