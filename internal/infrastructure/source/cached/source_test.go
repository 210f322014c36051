package cached

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/visionops/camsight/internal/core/domain"
)

type countingSource struct {
	listCalls    int
	resolveCalls int
	refs         []domain.ImageRef
	listErr      error
}

func (s *countingSource) List(ctx context.Context) ([]domain.ImageRef, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.refs, nil
}

func (s *countingSource) Resolve(ctx context.Context, id string) (string, error) {
	s.resolveCalls++
	return "https://example.com/" + id, nil
}

func (s *countingSource) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func TestListCachesInnerCalls(t *testing.T) {
	inner := &countingSource{refs: []domain.ImageRef{{ID: "a.jpg"}, {ID: "b.jpg"}}}
	source := New(inner, Config{ListingTTL: time.Minute, LocatorTTL: time.Minute})

	for i := 0; i < 3; i++ {
		refs, err := source.List(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(refs) != 2 {
			t.Fatalf("listed %d refs, want 2", len(refs))
		}
	}
	if inner.listCalls != 1 {
		t.Errorf("inner list called %d times, want 1", inner.listCalls)
	}
}

func TestListDoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{listErr: errors.New("bucket down")}
	source := New(inner, Config{ListingTTL: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := source.List(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.listCalls != 2 {
		t.Errorf("inner list called %d times, want 2", inner.listCalls)
	}
}

func TestListReturnsCopies(t *testing.T) {
	inner := &countingSource{refs: []domain.ImageRef{{ID: "a.jpg"}}}
	source := New(inner, Config{ListingTTL: time.Minute})

	first, _ := source.List(context.Background())
	first[0].ID = "mutated"

	second, _ := source.List(context.Background())
	if second[0].ID != "a.jpg" {
		t.Errorf("cached listing was mutated by caller: %q", second[0].ID)
	}
}

func TestResolveCachesPerID(t *testing.T) {
	inner := &countingSource{}
	source := New(inner, Config{LocatorTTL: time.Minute})

	for i := 0; i < 2; i++ {
		locator, err := source.Resolve(context.Background(), "a.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if locator != "https://example.com/a.jpg" {
			t.Errorf("locator = %q", locator)
		}
	}
	if _, err := source.Resolve(context.Background(), "b.jpg"); err != nil {
		t.Fatal(err)
	}
	if inner.resolveCalls != 2 {
		t.Errorf("inner resolve called %d times, want 2", inner.resolveCalls)
	}
}
