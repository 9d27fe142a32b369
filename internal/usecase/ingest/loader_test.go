package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/propsales/internal/db/memory"
	"github.com/kailas-cloud/propsales/internal/domain"
	domprop "github.com/kailas-cloud/propsales/internal/domain/property"
	"github.com/kailas-cloud/propsales/internal/metrics"
	repoprop "github.com/kailas-cloud/propsales/internal/repository/property"
)

func TestLoad_Batching(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		batchSize int
		wantSizes []int
	}{
		{"empty", 0, 2, nil},
		{"exact multiple", 4, 2, []int{2, 2}},
		{"remainder", 5, 2, []int{2, 2, 1}},
		{"single short batch", 3, 10, []int{3}},
		{"batch of one", 3, 1, []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			before := testutil.ToFloat64(metrics.IngestRowsInsertedTotal)

			n, err := NewLoader(repo, tt.batchSize).Load(context.Background(), makeRecords(tt.n))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if n != tt.n {
				t.Errorf("inserted = %d, want %d", n, tt.n)
			}
			if len(repo.batches) != len(tt.wantSizes) {
				t.Fatalf("calls = %d, want %d", len(repo.batches), len(tt.wantSizes))
			}
			for i, size := range tt.wantSizes {
				if len(repo.batches[i]) != size {
					t.Errorf("batch %d size = %d, want %d", i, len(repo.batches[i]), size)
				}
			}
			if got := testutil.ToFloat64(metrics.IngestRowsInsertedTotal) - before; got != float64(tt.n) {
				t.Errorf("rows inserted metric delta = %v, want %d", got, tt.n)
			}
		})
	}
}

func TestLoad_PreservesOrder(t *testing.T) {
	records := []domprop.Record{{ListingID: "a"}, {ListingID: "b"}, {ListingID: "c"}}
	repo := &mockRepo{}

	if _, err := NewLoader(repo, 2).Load(context.Background(), records); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if repo.batches[0][0].ListingID != "a" || repo.batches[0][1].ListingID != "b" || repo.batches[1][0].ListingID != "c" {
		t.Errorf("unexpected batch layout: %+v", repo.batches)
	}
}

func TestLoad_BatchFailureKeepsEarlierBatches(t *testing.T) {
	boom := errors.New("write failed")
	calls := 0
	repo := &mockRepo{
		insertFn: func(_ context.Context, batch []domprop.Record) (int, error) {
			calls++
			if calls == 3 {
				return 0, boom
			}
			return len(batch), nil
		},
	}

	n, err := NewLoader(repo, 2).Load(context.Background(), makeRecords(7))
	if n != 4 {
		t.Errorf("inserted = %d, want 4", n)
	}
	var ie *domain.InsertError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *domain.InsertError, got %T: %v", err, err)
	}
	if ie.Inserted != 4 {
		t.Errorf("InsertError.Inserted = %d, want 4", ie.Inserted)
	}
	if !errors.Is(err, boom) {
		t.Error("InsertError should wrap the store error")
	}
	if len(repo.batches) != 3 {
		t.Errorf("calls = %d, want 3 (no batches after the failure)", len(repo.batches))
	}
}

func TestLoad_CountsOnlyNewWrites(t *testing.T) {
	ctx := context.Background()
	repo := repoprop.New(memory.NewStore(), "propsales:")
	if err := repo.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	// Another run stored a and b after this run's existence check.
	stored := []domprop.Record{{ListingID: "a"}, {ListingID: "b"}}
	if _, err := repo.InsertMany(ctx, stored); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := testutil.ToFloat64(metrics.IngestRowsInsertedTotal)

	records := []domprop.Record{{ListingID: "a"}, {ListingID: "b"}, {ListingID: "c"}}
	n, err := NewLoader(repo, 2).Load(ctx, records)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}
	if got := testutil.ToFloat64(metrics.IngestRowsInsertedTotal) - before; got != 1 {
		t.Errorf("rows inserted metric delta = %v, want 1", got)
	}
}

func TestLoad_PartialBatchCountsWrites(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockRepo{
		insertFn: func(_ context.Context, batch []domprop.Record) (int, error) {
			if batch[0].ListingID == "c" {
				return 1, boom
			}
			return len(batch), nil
		},
	}

	n, err := NewLoader(repo, 2).Load(context.Background(), makeRecords(4))
	var ie *domain.InsertError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *domain.InsertError, got %v", err)
	}
	if n != 3 || ie.Inserted != 3 {
		t.Errorf("inserted = %d, InsertError.Inserted = %d; want 3", n, ie.Inserted)
	}
}

func TestLoad_CanceledBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &mockRepo{
		insertFn: func(_ context.Context, batch []domprop.Record) (int, error) {
			cancel()
			return len(batch), nil
		},
	}

	n, err := NewLoader(repo, 2).Load(ctx, makeRecords(5))
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
	var ie *domain.InsertError
	if !errors.As(err, &ie) || ie.Inserted != 2 {
		t.Fatalf("expected InsertError with 2 rows, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(repo.batches) != 1 {
		t.Errorf("calls = %d, want 1", len(repo.batches))
	}
}

func TestNewLoader_DefaultBatchSize(t *testing.T) {
	for _, size := range []int{0, -5} {
		if got := NewLoader(&mockRepo{}, size).BatchSize(); got != DefaultBatchSize {
			t.Errorf("NewLoader(%d).BatchSize() = %d, want %d", size, got, DefaultBatchSize)
		}
	}
}
