package property

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/propsales/internal/db"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetMultiFn func(ctx context.Context, items []db.JSONSetItem) (int, error)
	existsMultiFn  func(ctx context.Context, keys []string) ([]bool, error)
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	searchListFn   func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	searchCountFn  func(ctx context.Context, q *db.ListQuery) (int, error)
}

func (m *mockStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) (int, error) {
	if m.jsonSetMultiFn != nil {
		return m.jsonSetMultiFn(ctx, items)
	}
	return len(items), nil
}

func (m *mockStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if m.existsMultiFn != nil {
		return m.existsMultiFn(ctx, keys)
	}
	return make([]bool, len(keys)), nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, q *db.ListQuery) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, q)
	}
	return 0, nil
}

const testPrefix = "propsales:"

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testPrefix), ms
}

func strPtr(s string) *string { return &s }

func testRecord(t *testing.T, id string, saleDate time.Time) domprop.Record {
	t.Helper()
	return domprop.Record{
		ListingID:         id,
		SaleDate:          saleDate,
		Address:           "1 Main Street, Dublin 4",
		County:            "Dublin",
		Eircode:           strPtr("D04 X1Y2"),
		Price:             350000,
		IsFullMarketPrice: true,
		IsSecondHand:      true,
	}
}
