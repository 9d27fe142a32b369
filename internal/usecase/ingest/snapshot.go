package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
)

const snapshotSuffix = "_parsed.jsonl"

type snapshotRow struct {
	ListingID               string  `json:"listing_id"`
	SaleDate                string  `json:"sale_date"`
	Address                 string  `json:"address"`
	County                  string  `json:"county"`
	Eircode                 *string `json:"eircode"`
	Price                   float64 `json:"price"`
	IsFullMarketPrice       bool    `json:"is_full_market_price"`
	VATExclusive            bool    `json:"vat_exclusive"`
	PropertySizeDescription *string `json:"property_size_description"`
	IsSecondHand            bool    `json:"is_second_hand"`
}

// snapshotPath names the parsed copy of source next to it.
func snapshotPath(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), stem+snapshotSuffix)
}

// writeSnapshot stores the normalized records as JSON lines.
func writeSnapshot(path string, records []domprop.Record) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is inside the run's work dir
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close snapshot: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range records {
		r := &records[i]
		row := snapshotRow{
			ListingID:               r.ListingID,
			SaleDate:                r.SaleDate.UTC().Format(domprop.SaleDateLayout),
			Address:                 r.Address,
			County:                  r.County,
			Eircode:                 r.Eircode,
			Price:                   r.Price,
			IsFullMarketPrice:       r.IsFullMarketPrice,
			VATExclusive:            r.VATExclusive,
			PropertySizeDescription: r.PropertySizeDescription,
			IsSecondHand:            r.IsSecondHand,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode snapshot row %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}
