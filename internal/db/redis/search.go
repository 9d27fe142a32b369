package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/propsales/internal/db"
	"github.com/kailas-cloud/propsales/internal/domain/search/filter"
)

// SearchList returns one sorted page of matching documents via FT.SEARCH.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if err := validateListQuery(q); err != nil {
		return nil, err
	}
	if q.Offset < 0 || q.Limit <= 0 {
		return nil, fmt.Errorf("invalid page window: offset %d, limit %d", q.Offset, q.Limit)
	}

	args := []string{q.IndexName, queryString(q.Filters)}
	if q.SortBy != "" {
		order := "ASC"
		if q.Descending {
			order = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, order)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// SearchCount returns the number of matching documents via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, q *db.ListQuery) (int, error) {
	if err := validateListQuery(q); err != nil {
		return 0, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(q.IndexName, queryString(q.Filters), "LIMIT", "0", "0", "DIALECT", "2").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

func validateListQuery(q *db.ListQuery) error {
	if q == nil {
		return fmt.Errorf("query is required")
	}
	if q.IndexName == "" {
		return fmt.Errorf("index name is required")
	}
	return nil
}

// --- Result parsing ---

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// queryString returns the FT.SEARCH query for expr; "*" matches everything.
func queryString(expr filter.Expression) string {
	if f := buildFilter(expr); f != "" {
		return f
	}
	return "*"
}

// buildFilter translates filter.Expression into an FT.SEARCH query string.
// Space-separated clauses intersect.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Must()))
	for _, cond := range expr.Must() {
		if c := buildCondition(cond); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func buildCondition(cond filter.Condition) string {
	switch {
	case cond.IsMatch():
		return buildTagFilter(cond.Key(), cond.Match())
	case cond.IsRange():
		return buildNumericFilter(cond.Key(), *cond.Range())
	case cond.IsPattern():
		return buildWildcardFilter(cond.Key(), cond.Pattern())
	}
	return ""
}

func buildTagFilter(key, value string) string {
	escaped := tagEscaper.Replace(value)
	return fmt.Sprintf("@%s:{%s}", key, escaped)
}

// buildWildcardFilter matches TAG values containing tokens in order:
// @key:{w'*tok1*tok2*'}. TAG matching is case-insensitive unless the field
// is CASESENSITIVE.
func buildWildcardFilter(key string, tokens []string) string {
	var b strings.Builder
	b.WriteString("*")
	for _, t := range tokens {
		b.WriteString(wildcardEscaper.Replace(t))
		b.WriteString("*")
	}
	return fmt.Sprintf("@%s:{w'%s'}", key, b.String())
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = "(" + formatNumber(*r.GT())
	} else if r.GTE() != nil {
		minBound = formatNumber(*r.GTE())
	}

	if r.LT() != nil {
		maxBound = "(" + formatNumber(*r.LT())
	} else if r.LTE() != nil {
		maxBound = formatNumber(*r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// formatNumber avoids exponent notation so millisecond timestamps stay exact.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// wildcardEscaper escapes characters that are special inside w'...'.
var wildcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`*`, `\*`,
	`?`, `\?`,
)
