// Package docfilter evaluates filter expressions against JSON documents in
// process, following FT.SEARCH semantics for TAG and NUMERIC fields.
package docfilter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/domain/search/filter"
)

// defaultTagSeparator matches the FT.CREATE default for TAG fields.
const defaultTagSeparator = ","

// ErrUnsortable is returned when sort values have mixed or unsupported types.
var ErrUnsortable = errors.New("sort field has mixed or unsupported value types")

// Hit is a document that matched, with its indexed values keyed by query name.
type Hit struct {
	Key    string
	Raw    []byte
	Fields map[string]any
}

// CheckFields rejects conditions on fields the index does not define.
func CheckFields(idx *db.IndexDefinition, expr filter.Expression) error {
	for _, c := range expr.Must() {
		if idx.Field(c.Key()) == nil {
			return fmt.Errorf("unknown field %q", c.Key())
		}
	}
	return nil
}

// HasAnyPrefix reports whether key falls under one of the index prefixes.
// An index without prefixes covers every key.
func HasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Evaluate decodes raw and returns a Hit when it satisfies every condition.
func Evaluate(key string, raw []byte, idx *db.IndexDefinition, expr filter.Expression) (Hit, bool, error) {
	fields, err := Extract(raw, idx)
	if err != nil {
		return Hit{}, false, fmt.Errorf("key %s: %w", key, err)
	}
	if !MatchesAll(expr, idx, fields) {
		return Hit{}, false, nil
	}
	return Hit{Key: key, Raw: raw, Fields: fields}, true, nil
}

// Extract resolves each index field's JSON path against the document.
func Extract(raw []byte, idx *db.IndexDefinition) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if v, ok := lookup(doc, f.Name); ok {
			fields[f.QueryName()] = v
		}
	}
	return fields, nil
}

// lookup follows a "$.a.b" style path; a bare name is a top-level key.
func lookup(doc map[string]any, path string) (any, bool) {
	path = strings.TrimPrefix(strings.TrimPrefix(path, "$"), ".")
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// MatchesAll reports whether fields satisfy every condition of expr.
func MatchesAll(expr filter.Expression, idx *db.IndexDefinition, fields map[string]any) bool {
	for _, c := range expr.Must() {
		f := idx.Field(c.Key())
		if f == nil {
			return false
		}
		v, ok := fields[c.Key()]
		if !ok {
			return false
		}
		if !matchesCondition(c, f, v) {
			return false
		}
	}
	return true
}

func matchesCondition(c filter.Condition, f *db.IndexField, v any) bool {
	switch {
	case c.IsRange():
		n, ok := v.(float64)
		return ok && f.Type == db.IndexFieldNumeric && c.Range().Contains(n)
	case c.IsMatch():
		for _, t := range tagValues(f, v) {
			if f.TagCaseSensitive && t == c.Match() {
				return true
			}
			if !f.TagCaseSensitive && strings.EqualFold(t, c.Match()) {
				return true
			}
		}
	case c.IsPattern():
		for _, t := range tagValues(f, v) {
			if filter.MatchesPattern(t, c.Pattern()) {
				return true
			}
		}
	}
	return false
}

// tagValues splits a TAG value on the field's separator.
func tagValues(f *db.IndexField, v any) []string {
	if f.Type != db.IndexFieldTag {
		return nil
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = strconv.FormatBool(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil
	}
	sep := f.TagSeparator
	if sep == "" {
		sep = defaultTagSeparator
	}
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sort orders hits by field; documents missing it go last. Ties keep the
// incoming order.
func Sort(hits []Hit, field string, desc bool) error {
	var sortErr error
	sort.SliceStable(hits, func(i, j int) bool {
		a, aok := hits[i].Fields[field]
		b, bok := hits[j].Fields[field]
		if !aok || !bok {
			return aok && !bok
		}
		cmp, err := compare(a, b)
		if err != nil {
			sortErr = err
			return false
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sortErr
}

func compare(a, b any) (int, error) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, ErrUnsortable
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, ErrUnsortable
		}
		return strings.Compare(x, y), nil
	}
	return 0, ErrUnsortable
}

// ValidateWindow rejects a negative offset or non-positive limit.
func ValidateWindow(offset, limit int) error {
	if offset < 0 || limit <= 0 {
		return fmt.Errorf("invalid page window: offset %d, limit %d", offset, limit)
	}
	return nil
}

// Page sorts hits per q and cuts the requested window. Total counts every hit.
func Page(hits []Hit, q *db.ListQuery) (*db.SearchResult, error) {
	if q.SortBy != "" {
		if err := Sort(hits, q.SortBy, q.Descending); err != nil {
			return nil, err
		}
	}

	res := &db.SearchResult{Total: len(hits)}
	if q.Offset >= len(hits) {
		return res, nil
	}
	end := min(q.Offset+q.Limit, len(hits))
	res.Entries = make([]db.SearchEntry, 0, end-q.Offset)
	for _, h := range hits[q.Offset:end] {
		res.Entries = append(res.Entries, db.SearchEntry{
			Key:    h.Key,
			Fields: map[string]string{db.JSONRootField: string(h.Raw)},
		})
	}
	return res, nil
}
