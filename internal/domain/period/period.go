// Package period identifies the calendar month a register extract covers.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Period is a calendar year-month.
type Period struct {
	Year  int
	Month time.Month
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Parse accepts "YYYY-MM" or "YYYY-MM-DD" (the day is ignored).
func Parse(s string) (Period, error) {
	s = strings.TrimSpace(s)
	layout := "2006-01"
	if len(s) > len(layout) {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", s, err)
	}
	return Of(t), nil
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Next returns the following month.
func (p Period) Next() Period {
	return Of(time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Range lists every period from start to end inclusive. It is empty when end
// precedes start.
func Range(start, end Period) []Period {
	var out []Period
	for p := start; !end.Before(p); p = p.Next() {
		out = append(out, p)
	}
	return out
}
