// Package ingest reads operations from CSV and feeds them to a ledger.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xraph/txledger/operation"
	"github.com/xraph/txledger/types"
)

// Column names recognised in the header row.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

var (
	ErrHeader        = errors.New("ingest: missing or invalid header")
	ErrMissingAmount = errors.New("ingest: missing amount")
	ErrMissingField  = errors.New("ingest: missing field")
)

// RowError reports a row that could not be decoded. The row is skipped;
// decoding can continue with the next one.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("ingest: line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Decoder reads operations from CSV with a header naming the columns
// type, client, tx and amount in any order. Fields are trimmed, lines
// starting with '#' are ignored and rows may omit trailing fields.
type Decoder struct {
	r    *csv.Reader
	cols map[string]int
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Decoder{r: cr}
}

// Decode returns the next operation. It returns io.EOF when the input is
// exhausted and a *RowError for a row that was skipped. Any other error is
// fatal.
func (d *Decoder) Decode() (operation.Operation, error) {
	if d.cols == nil {
		if err := d.readHeader(); err != nil {
			return nil, err
		}
	}

	record, err := d.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &RowError{Line: pe.Line, Err: pe.Err}
		}
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("ingest: read: %w", err)
	}

	line, _ := d.r.FieldPos(0)
	op, err := d.parse(record)
	if err != nil {
		return nil, &RowError{Line: line, Err: err}
	}
	return op, nil
}

func (d *Decoder) readHeader() error {
	header, err := d.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty input", ErrHeader)
		}
		return fmt.Errorf("%w: %w", ErrHeader, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("%w: no %q column", ErrHeader, required)
		}
	}

	d.cols = cols
	return nil
}

// field returns the trimmed value of a column, or "" if the row is short
// or the column is absent.
func (d *Decoder) field(record []string, name string) string {
	i, ok := d.cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (d *Decoder) parse(record []string) (operation.Operation, error) {
	typ := d.field(record, ColumnType)
	if typ == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, ColumnType)
	}
	kind, err := operation.ParseKind(typ)
	if err != nil {
		return nil, err
	}

	rawClient := d.field(record, ColumnClient)
	if rawClient == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, ColumnClient)
	}
	client, err := types.ParseClientID(rawClient)
	if err != nil {
		return nil, err
	}

	rawTx := d.field(record, ColumnTx)
	if rawTx == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, ColumnTx)
	}
	tx, err := types.ParseTxID(rawTx)
	if err != nil {
		return nil, err
	}

	var amount types.Amount
	if kind.RequiresAmount() {
		raw := d.field(record, ColumnAmount)
		if raw == "" {
			return nil, fmt.Errorf("%w for %s", ErrMissingAmount, kind)
		}
		if amount, err = types.ParseAmount(raw); err != nil {
			return nil, err
		}
	}

	return operation.New(kind, client, tx, amount)
}
