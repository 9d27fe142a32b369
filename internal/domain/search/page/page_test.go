package page

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/propsales/internal/domain"
)

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		num, size int
	}{
		{"zero page", 0, 20},
		{"negative page", -1, 20},
		{"zero size", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.num, tt.size)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestWindow_Skip(t *testing.T) {
	tests := []struct {
		num, size, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{5, 10, 40},
	}
	for _, tt := range tests {
		w, err := New(tt.num, tt.size)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := w.Skip(); got != tt.want {
			t.Errorf("Skip(%d, %d) = %d, want %d", tt.num, tt.size, got, tt.want)
		}
	}
}

func TestWindow_Meta(t *testing.T) {
	tests := []struct {
		name     string
		num      int
		size     int
		total    int
		hasNext  bool
		nextPage int
	}{
		{"first of two", 1, 10, 20, true, 2},
		{"last exact", 2, 10, 20, false, 0},
		{"partial last", 3, 10, 25, false, 0},
		{"more left", 2, 10, 21, true, 3},
		{"empty", 1, 20, 0, false, 0},
		{"past end", 4, 10, 20, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.num, tt.size)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			m := w.Meta(tt.total)
			if m.Total != tt.total {
				t.Errorf("Total = %d", m.Total)
			}
			if m.HasNext != tt.hasNext {
				t.Errorf("HasNext = %v, want %v", m.HasNext, tt.hasNext)
			}
			if !tt.hasNext {
				if m.NextPage != nil {
					t.Errorf("NextPage = %d, want nil", *m.NextPage)
				}
				return
			}
			if m.NextPage == nil || *m.NextPage != tt.nextPage {
				t.Errorf("NextPage = %v, want %d", m.NextPage, tt.nextPage)
			}
		})
	}
}
