package s0_data

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/pkg/httputil"
	"github.com/wonny/sectorscope/pkg/logger"
	"github.com/wonny/sectorscope/pkg/redis"
)

// FileSource reads a dataset or single-sector payload from disk.
// The whole file is returned whatever sector is requested, so statistics can use every sector in it.
type FileSource struct {
	path   string
	logger *logger.Logger
}

// NewFileSource creates a FileSource
func NewFileSource(path string, log *logger.Logger) *FileSource {
	return &FileSource{path: path, logger: log}
}

// Load implements contracts.DatasetSource
func (s *FileSource) Load(ctx context.Context, sectorKey string) (*contracts.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	ds, err := DecodePayload(string(data))
	if err != nil {
		return nil, fmt.Errorf("decode dataset file %s: %w", s.path, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    s.path,
		"sectors": len(ds.Sectors),
		"stocks":  ds.StockCount(),
	}).Debug("Dataset file loaded")

	return ds, nil
}

// HTTPSource fetches a sector payload from a URL template containing {sector}
type HTTPSource struct {
	urlTemplate string
	client      *httputil.Client
	logger      *logger.Logger
}

// NewHTTPSource creates an HTTPSource
func NewHTTPSource(urlTemplate string, client *httputil.Client, log *logger.Logger) *HTTPSource {
	return &HTTPSource{
		urlTemplate: urlTemplate,
		client:      client,
		logger:      log,
	}
}

// Load implements contracts.DatasetSource
func (s *HTTPSource) Load(ctx context.Context, sectorKey string) (*contracts.Dataset, error) {
	target := strings.ReplaceAll(s.urlTemplate, "{sector}", url.PathEscape(sectorKey))

	body, err := s.client.GetBytes(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetch sector %s: %w", sectorKey, err)
	}

	ds, err := DecodePayload(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode sector %s payload: %w", sectorKey, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"sector": sectorKey,
		"stocks": ds.StockCount(),
	}).Info("Sector payload fetched")

	return ds, nil
}

// CachedSource caches another source's datasets in Redis under sector:<key>
type CachedSource struct {
	inner  contracts.DatasetSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps inner with a TTL cache; ttl <= 0 uses the 3h default
func NewCachedSource(inner contracts.DatasetSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLSectorPayload
	}
	return &CachedSource{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

// Load implements contracts.DatasetSource
func (s *CachedSource) Load(ctx context.Context, sectorKey string) (*contracts.Dataset, error) {
	key := redis.SectorKey(sectorKey)

	var cached contracts.Dataset
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// 캐시 오류는 치명적이지 않음 - 원본에서 다시 로드
		s.logger.WithError(err).WithField("sector", sectorKey).Warn("Sector cache read failed")
	}
	if found {
		s.logger.WithField("sector", sectorKey).Debug("Sector cache hit")
		return &cached, nil
	}

	ds, err := s.inner.Load(ctx, sectorKey)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, ds, s.ttl); err != nil {
		s.logger.WithError(err).WithField("sector", sectorKey).Warn("Sector cache write failed")
	}

	return ds, nil
}

// Invalidate drops the cached payload of a sector
func (s *CachedSource) Invalidate(ctx context.Context, sectorKey string) error {
	return s.cache.Delete(ctx, redis.SectorKey(sectorKey))
}

// StaticSource serves a dataset already in memory
type StaticSource struct {
	Dataset *contracts.Dataset
}

// Load implements contracts.DatasetSource
func (s StaticSource) Load(ctx context.Context, sectorKey string) (*contracts.Dataset, error) {
	if s.Dataset == nil {
		return nil, fmt.Errorf("no dataset loaded")
	}
	return s.Dataset, nil
}
