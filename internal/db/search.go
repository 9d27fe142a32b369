package db

import "github.com/kailas-cloud/propsales/internal/domain/search/filter"

// JSONRootField is the field name under which FT.SEARCH returns a whole JSON document.
const JSONRootField = "$"

// ListQuery is the input for a filtered, sorted page read.
// Offset and Limit are ignored by SearchCount.
type ListQuery struct {
	IndexName  string
	Filters    filter.Expression
	SortBy     string
	Descending bool
	Offset     int
	Limit      int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
