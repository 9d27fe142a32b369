package property

import "time"

// SaleDateLayout is the stored ISO-8601 representation of a sale date.
const SaleDateLayout = "2006-01-02T15:04:05.000Z"

// Record is one property sale as stored. Eircode and PropertySizeDescription
// are nil when the source left them blank, never empty strings.
type Record struct {
	ListingID               string
	SaleDate                time.Time
	Address                 string
	County                  string
	Eircode                 *string
	Price                   float64
	IsFullMarketPrice       bool
	VATExclusive            bool
	PropertySizeDescription *string
	IsSecondHand            bool
}

// Result is a record as returned to search callers: no listing ID, no storage key.
type Result struct {
	SaleDate                string
	Address                 string
	County                  string
	Eircode                 *string
	Price                   float64
	IsFullMarketPrice       bool
	VATExclusive            bool
	PropertySizeDescription *string
	IsSecondHand            bool
}

// ToResult strips internal identifiers.
func (r *Record) ToResult() Result {
	return Result{
		SaleDate:                r.SaleDate.UTC().Format(SaleDateLayout),
		Address:                 r.Address,
		County:                  r.County,
		Eircode:                 r.Eircode,
		Price:                   r.Price,
		IsFullMarketPrice:       r.IsFullMarketPrice,
		VATExclusive:            r.VATExclusive,
		PropertySizeDescription: r.PropertySizeDescription,
		IsSecondHand:            r.IsSecondHand,
	}
}
