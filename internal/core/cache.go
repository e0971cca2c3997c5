package core

import (
	"context"
	"log/slog"
	"time"
)

// CatalogKind names one catalog listing on the inventory platform.
type CatalogKind string

// Catalog listings cached by the data source client.
const (
	CatalogReports   CatalogKind = "reports"
	CatalogViews     CatalogKind = "views"
	CatalogQuestions CatalogKind = "questions"
)

// CatalogKinds lists every cached catalog.
var CatalogKinds = []CatalogKind{CatalogReports, CatalogViews, CatalogQuestions}

// CatalogCacheConfig holds configuration for catalog caching.
type CatalogCacheConfig struct {
	TTL time.Duration `json:"ttl"`
}

// DefaultCatalogCacheConfig returns a CatalogCacheConfig with sensible defaults.
func DefaultCatalogCacheConfig() CatalogCacheConfig {
	return CatalogCacheConfig{
		TTL: 15 * time.Minute,
	}
}

// CatalogCacheServiceOptions bundles dependencies for NewCatalogCacheService.
type CatalogCacheServiceOptions struct {
	Cache  CacheRepository
	Config CatalogCacheConfig
	Logger *slog.Logger
}

// CatalogCacheService caches catalog listing bodies (reports, views, saved questions)
// so name lookups do not download the full catalog on every job.
//
// Cache failures never fail a lookup: they are logged and treated as a miss.
// A nil service or one without a repository behaves as an always-empty cache.
type CatalogCacheService struct {
	cache  CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCatalogCacheService creates a new CatalogCacheService.
func NewCatalogCacheService(opts CatalogCacheServiceOptions) *CatalogCacheService {
	ttl := opts.Config.TTL
	if ttl <= 0 {
		ttl = DefaultCatalogCacheConfig().TTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCacheService{
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger.With("component", "catalog_cache"),
	}
}

// Get returns the cached listing body for kind, or nil on a miss.
func (s *CatalogCacheService) Get(ctx context.Context, kind CatalogKind) []byte {
	if s == nil || s.cache == nil {
		return nil
	}
	body, err := s.cache.Get(ctx, CatalogKey(kind))
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache get failed", "catalog", string(kind), "error", err)
		return nil
	}
	return body
}

// Put stores a listing body for kind.
func (s *CatalogCacheService) Put(ctx context.Context, kind CatalogKind, body []byte) {
	if s == nil || s.cache == nil || len(body) == 0 {
		return
	}
	if err := s.cache.Set(ctx, CatalogKey(kind), body, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "catalog cache set failed", "catalog", string(kind), "error", err)
	}
}

// Invalidate removes the cached listings for the given kinds, or all kinds when none are given.
// It returns the number of entries removed.
func (s *CatalogCacheService) Invalidate(ctx context.Context, kinds ...CatalogKind) (int, error) {
	if s == nil || s.cache == nil {
		return 0, nil
	}
	if len(kinds) == 0 {
		kinds = CatalogKinds
	}
	removed := 0
	for _, kind := range kinds {
		ok, err := s.cache.Delete(ctx, CatalogKey(kind))
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// CatalogKey generates a cache key for a catalog listing.
func CatalogKey(kind CatalogKind) string {
	return "tanium:catalog:" + string(kind)
}
