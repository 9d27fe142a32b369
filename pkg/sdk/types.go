package propsales

import "time"

// SearchParams are optional search constraints. Nil fields impose none.
type SearchParams struct {
	Address      *string
	County       *string
	StartDate    *string // YYYY-MM-DD
	EndDate      *string // YYYY-MM-DD, inclusive
	MinPrice     *float64
	MaxPrice     *float64
	IsSecondHand *bool
	// Ascending orders oldest sales first. Default is newest first.
	Ascending bool
	// PageNum is 1-based; zero means the first page.
	PageNum int
}

// Property is one sale returned by Search.
type Property struct {
	SaleDate                string // YYYY-MM-DD
	Address                 string
	County                  string
	Eircode                 *string
	Price                   float64
	IsFullMarketPrice       bool
	VATExclusive            bool
	PropertySizeDescription *string
	IsSecondHand            bool
}

// SearchPage is one page of results.
type SearchPage struct {
	Total    int
	HasNext  bool
	NextPage *int
	Results  []Property
}

// IngestResult summarizes a successful ingestion.
type IngestResult struct {
	SourceURL    string
	RowsInserted int
	Elapsed      time.Duration
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
