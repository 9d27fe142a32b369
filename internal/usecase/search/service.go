package search

import (
	"context"
	"fmt"

	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/domain/search/page"
	"github.com/kailas-cloud/propsales/internal/domain/search/query"
)

// Page is one page of search results with pagination metadata.
type Page struct {
	Meta    page.Meta
	Results []domprop.Result
}

// Service answers filtered, paginated property searches.
type Service struct {
	repo     Repository
	pageSize int
}

// New creates a search service. A non-positive pageSize falls back to page.DefaultSize.
func New(repo Repository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = page.DefaultSize
	}
	return &Service{repo: repo, pageSize: pageSize}
}

// PageSize returns the fixed page size.
func (s *Service) PageSize() int { return s.pageSize }

// Search counts all matches, then fetches the requested page. Invalid
// parameters fail with a *domain.ValidationError before the store is touched.
func (s *Service) Search(ctx context.Context, p query.Params) (Page, error) {
	q, err := query.Build(p)
	if err != nil {
		return Page{}, err
	}
	w, err := page.New(p.PageNum, s.pageSize)
	if err != nil {
		return Page{}, err
	}

	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("count: %w", err)
	}

	results := []domprop.Result{}
	if w.Skip() < total {
		results, err = s.repo.Find(ctx, q, w.Skip(), w.Size())
		if err != nil {
			return Page{}, fmt.Errorf("find: %w", err)
		}
	}

	return Page{Meta: w.Meta(total), Results: results}, nil
}
