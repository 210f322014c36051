package cached

import (
	"context"
	"io"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/core/ports"
)

const listKey = "corpus-listing"

type Config struct {
	ListingTTL time.Duration
	LocatorTTL time.Duration
}

// Source decorates an image source with TTL caches. Listings are cached
// briefly since the corpus changes as cameras upload; locators are cached
// close to their signing lifetime so one job never re-mints the same URL.
type Source struct {
	inner    ports.ImageSource
	listings *gocache.Cache
	locators *gocache.Cache
}

func New(inner ports.ImageSource, cfg Config) *Source {
	listingTTL := cfg.ListingTTL
	if listingTTL <= 0 {
		listingTTL = 5 * time.Minute
	}
	locatorTTL := cfg.LocatorTTL
	if locatorTTL <= 0 {
		locatorTTL = time.Hour
	}
	return &Source{
		inner:    inner,
		listings: gocache.New(listingTTL, 2*listingTTL),
		locators: gocache.New(locatorTTL, 2*locatorTTL),
	}
}

func (s *Source) List(ctx context.Context) ([]domain.ImageRef, error) {
	if cached, ok := s.listings.Get(listKey); ok {
		refs := cached.([]domain.ImageRef)
		out := make([]domain.ImageRef, len(refs))
		copy(out, refs)
		return out, nil
	}

	refs, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	stored := make([]domain.ImageRef, len(refs))
	copy(stored, refs)
	s.listings.SetDefault(listKey, stored)
	return refs, nil
}

func (s *Source) Resolve(ctx context.Context, id string) (string, error) {
	if cached, ok := s.locators.Get(id); ok {
		return cached.(string), nil
	}
	locator, err := s.inner.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	s.locators.SetDefault(id, locator)
	return locator, nil
}

func (s *Source) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	return s.inner.Open(ctx, id)
}
