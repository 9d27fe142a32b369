package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/kailas-cloud/propsales/internal/domain"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
)

// Register column order. The raw property description only feeds IsSecondHand.
const (
	colSaleDate = iota
	colAddress
	colCounty
	colEircode
	colPrice
	colNotFullMarketPrice
	colVATExclusive
	colDescription
	colSizeDescription
	numColumns
)

var columnNames = [numColumns]string{
	"sale_date",
	"address",
	"county",
	"eircode",
	"price",
	"is_full_market_price",
	"vat_exclusive",
	"description_of_property",
	"property_size_description",
}

type rawRow struct {
	line   int
	id     string
	fields []string
}

// Transformer turns a raw register extract into new, normalized records.
type Transformer struct {
	existing  ExistenceChecker
	namespace uuid.UUID
}

// NewTransformer creates a transformer. A nil namespace uses property.DefaultNamespace.
func NewTransformer(existing ExistenceChecker, namespace uuid.UUID) *Transformer {
	if namespace == uuid.Nil {
		namespace = domprop.DefaultNamespace
	}
	return &Transformer{existing: existing, namespace: namespace}
}

// Transform parses a Latin-1 CSV extract with a header row, drops rows whose
// listing ID is already stored or repeated earlier in the file, and normalizes
// the rest. The first bad row aborts with a *domain.ParseError.
func (t *Transformer) Transform(ctx context.Context, r io.Reader) ([]domprop.Record, error) {
	rows, err := t.readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domprop.Record{}, nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].id
	}
	stored, err := t.existing.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup existing listing ids: %w", err)
	}

	records := make([]domprop.Record, 0, len(rows))
	for i := range rows {
		if _, ok := stored[rows[i].id]; ok {
			continue
		}
		rec, err := normalize(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// readRows decodes the file and keys every data row. Later rows repeating an
// earlier listing ID are dropped.
func (t *Transformer) readRows(r io.Reader) ([]rawRow, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.FieldsPerRecord = numColumns

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, csvParseError(err)
	}

	var rows []rawRow
	seen := make(map[string]struct{})
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := cr.FieldPos(0)

		id := domprop.ListingID(t.namespace, fields[colSaleDate], fields[colAddress])
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, rawRow{line: line, id: id, fields: fields})
	}
	return rows, nil
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &domain.ParseError{Err: err}
}

func normalize(row *rawRow) (domprop.Record, error) {
	f := row.fields

	saleDate, err := domprop.ParseSaleDate(f[colSaleDate])
	if err != nil {
		return domprop.Record{}, rowError(row, colSaleDate, err)
	}
	price, err := domprop.ParsePrice(f[colPrice])
	if err != nil {
		return domprop.Record{}, rowError(row, colPrice, err)
	}

	return domprop.Record{
		ListingID:               row.id,
		SaleDate:                saleDate,
		Address:                 domprop.TitleCase(f[colAddress]),
		County:                  f[colCounty],
		Eircode:                 domprop.Optional(f[colEircode]),
		Price:                   price,
		IsFullMarketPrice:       domprop.FullMarketPrice(f[colNotFullMarketPrice]),
		VATExclusive:            domprop.IsYes(f[colVATExclusive]),
		PropertySizeDescription: domprop.Optional(f[colSizeDescription]),
		IsSecondHand:            domprop.SecondHand(f[colDescription]),
	}, nil
}

func rowError(row *rawRow, col int, err error) error {
	return &domain.ParseError{
		Line:   row.line,
		Column: columnNames[col],
		Value:  row.fields[col],
		Err:    err,
	}
}
