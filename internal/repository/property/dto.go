package property

import domprop "github.com/kailas-cloud/propsales/internal/domain/property"

// propertyDoc is the stored JSON document. sale_ts duplicates sale_date as
// unix milliseconds so it can be range-filtered and sorted.
type propertyDoc struct {
	ListingID               string  `json:"listing_id"`
	SaleDate                string  `json:"sale_date"`
	SaleTS                  int64   `json:"sale_ts"`
	Address                 string  `json:"address"`
	County                  string  `json:"county"`
	Eircode                 *string `json:"eircode"`
	Price                   float64 `json:"price"`
	IsFullMarketPrice       bool    `json:"is_full_market_price"`
	VATExclusive            bool    `json:"vat_exclusive"`
	PropertySizeDescription *string `json:"property_size_description"`
	IsSecondHand            bool    `json:"is_second_hand"`
}

func toDoc(r *domprop.Record) propertyDoc {
	saleDate := r.SaleDate.UTC()
	return propertyDoc{
		ListingID:               r.ListingID,
		SaleDate:                saleDate.Format(domprop.SaleDateLayout),
		SaleTS:                  saleDate.UnixMilli(),
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

func (d *propertyDoc) toResult() domprop.Result {
	return domprop.Result{
		SaleDate:                d.SaleDate,
		Address:                 d.Address,
		County:                  d.County,
		Eircode:                 d.Eircode,
		Price:                   d.Price,
		IsFullMarketPrice:       d.IsFullMarketPrice,
		VATExclusive:            d.VATExclusive,
		PropertySizeDescription: d.PropertySizeDescription,
		IsSecondHand:            d.IsSecondHand,
	}
}
