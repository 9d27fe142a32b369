// Package query turns optional search parameters into a store filter and sort order.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/propsales/internal/domain"
	"github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/filter"
)

// DateLayout is the accepted format for start and end dates.
const DateLayout = "2006-01-02"

// Indexed field names shared by the repository and the store schema.
const (
	FieldAddress    = "address"
	FieldCounty     = "county"
	FieldSaleTS     = "sale_ts"
	FieldPrice      = "price"
	FieldSecondHand = "is_second_hand"
)

// SortField is the only sort key: sale date.
const SortField = FieldSaleTS

// Params are the caller's search parameters. Nil fields impose no constraint.
type Params struct {
	Address      *string
	County       *string
	StartDate    *string
	EndDate      *string
	MinPrice     *float64
	MaxPrice     *float64
	IsSecondHand *bool
	// Descending orders newest sales first. NewParams sets it to true.
	Descending bool
	PageNum    int
}

// NewParams returns Params with the defaults: newest first, first page.
func NewParams() Params {
	return Params{Descending: true, PageNum: 1}
}

// Query is a built filter plus sort order.
type Query struct {
	Filters    filter.Expression
	SortBy     string
	Descending bool
}

// Build composes the conjunction of every supplied constraint.
//
// The upper price bound is max_price + 1, which is only inclusive for
// whole-euro prices.
func Build(p Params) (Query, error) {
	var conds []filter.Condition

	if p.Address != nil {
		if tokens := strings.Fields(*p.Address); len(tokens) > 0 {
			c, err := filter.NewPattern(FieldAddress, tokens)
			if err != nil {
				return Query{}, domain.NewValidationError("address", *p.Address, err)
			}
			conds = append(conds, c)
		}
	}

	if p.County != nil && strings.TrimSpace(*p.County) != "" {
		c, err := filter.NewMatch(FieldCounty, property.TitleCase(*p.County))
		if err != nil {
			return Query{}, domain.NewValidationError("county", *p.County, err)
		}
		conds = append(conds, c)
	}

	dateCond, ok, err := saleDateRange(p.StartDate, p.EndDate)
	if err != nil {
		return Query{}, err
	}
	if ok {
		conds = append(conds, dateCond)
	}

	priceCond, ok, err := priceRange(p.MinPrice, p.MaxPrice)
	if err != nil {
		return Query{}, err
	}
	if ok {
		conds = append(conds, priceCond)
	}

	if p.IsSecondHand != nil {
		c, err := filter.NewMatch(FieldSecondHand, strconv.FormatBool(*p.IsSecondHand))
		if err != nil {
			return Query{}, fmt.Errorf("second-hand filter: %w", err)
		}
		conds = append(conds, c)
	}

	expr, err := filter.NewExpression(conds...)
	if err != nil {
		return Query{}, fmt.Errorf("build filter: %w", err)
	}
	return Query{Filters: expr, SortBy: SortField, Descending: p.Descending}, nil
}

// ParseDate parses a YYYY-MM-DD search date as midnight UTC.
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, raw, errors.New("expected YYYY-MM-DD"))
	}
	return t, nil
}

// saleDateRange covers start 00:00 through the whole end day: end + 1 day is
// used as an exclusive bound.
func saleDateRange(start, end *string) (filter.Condition, bool, error) {
	var gte, lt *float64

	if start != nil && strings.TrimSpace(*start) != "" {
		t, err := ParseDate("start_date", *start)
		if err != nil {
			return filter.Condition{}, false, err
		}
		v := float64(t.UnixMilli())
		gte = &v
	}
	if end != nil && strings.TrimSpace(*end) != "" {
		t, err := ParseDate("end_date", *end)
		if err != nil {
			return filter.Condition{}, false, err
		}
		v := float64(t.AddDate(0, 0, 1).UnixMilli())
		lt = &v
	}
	if gte == nil && lt == nil {
		return filter.Condition{}, false, nil
	}

	r, err := filter.NewRangeFilter(nil, gte, lt, nil)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("sale date range: %w", err)
	}
	c, err := filter.NewRange(FieldSaleTS, r)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("sale date range: %w", err)
	}
	return c, true, nil
}

func priceRange(minPrice, maxPrice *float64) (filter.Condition, bool, error) {
	if minPrice == nil && maxPrice == nil {
		return filter.Condition{}, false, nil
	}

	var lte *float64
	if maxPrice != nil {
		v := *maxPrice + 1
		lte = &v
	}

	r, err := filter.NewRangeFilter(nil, minPrice, nil, lte)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("price range: %w", err)
	}
	c, err := filter.NewRange(FieldPrice, r)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("price range: %w", err)
	}
	return c, true, nil
}
