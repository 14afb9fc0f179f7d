package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/wilayah"
)

const (
	levelProvinces = "provinces"
	levelRegencies = "regencies"
	levelDistricts = "districts"
	levelVillages  = "villages"

	defaultCacheTTL = 7 * 24 * time.Hour
)

// Source is the upstream area directory.
type Source interface {
	Provinces(ctx context.Context) ([]wilayah.Region, error)
	Regencies(ctx context.Context, provinceCode string) ([]wilayah.Region, error)
	Districts(ctx context.Context, regencyCode string) ([]wilayah.Region, error)
	Villages(ctx context.Context, districtCode string) ([]wilayah.Region, error)
}

// Service serves the province > regency > district > village hierarchy
// through a shared cache.
type Service interface {
	Provinces(ctx context.Context) ([]wilayah.Region, error)
	Regencies(ctx context.Context, provinceCode string) ([]wilayah.Region, error)
	Districts(ctx context.Context, regencyCode string) ([]wilayah.Region, error)
	Villages(ctx context.Context, districtCode string) ([]wilayah.Region, error)
}

type service struct {
	source Source
	cache  redis.JSONCache
	ttl    time.Duration
	logg   *logger.Logger
	group  singleflight.Group
}

// NewService builds the lookup service. A nil cache disables caching.
func NewService(source Source, cache redis.JSONCache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("location source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &service{source: source, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Provinces(ctx context.Context) ([]wilayah.Region, error) {
	return s.lookup(ctx, levelProvinces, "", func(ctx context.Context) ([]wilayah.Region, error) {
		return s.source.Provinces(ctx)
	})
}

func (s *service) Regencies(ctx context.Context, provinceCode string) ([]wilayah.Region, error) {
	return s.child(ctx, levelRegencies, provinceCode, s.source.Regencies)
}

func (s *service) Districts(ctx context.Context, regencyCode string) ([]wilayah.Region, error) {
	return s.child(ctx, levelDistricts, regencyCode, s.source.Districts)
}

func (s *service) Villages(ctx context.Context, districtCode string) ([]wilayah.Region, error) {
	return s.child(ctx, levelVillages, districtCode, s.source.Villages)
}

func (s *service) child(ctx context.Context, level, parentCode string, fetch func(context.Context, string) ([]wilayah.Region, error)) ([]wilayah.Region, error) {
	code := strings.TrimSpace(parentCode)
	if code == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "parent code is required for %s", level)
	}
	return s.lookup(ctx, level, code, func(ctx context.Context) ([]wilayah.Region, error) {
		return fetch(ctx, code)
	})
}

// lookup reads through the cache. Concurrent misses for the same key share a
// single upstream request; cache failures fall back to the upstream.
func (s *service) lookup(ctx context.Context, level, code string, fetch func(context.Context) ([]wilayah.Region, error)) ([]wilayah.Region, error) {
	key := s.key(level, code)
	if regions, ok := s.cached(ctx, key); ok {
		return regions, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		regions, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, key, regions, s.ttl); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "store locations in cache failed: "+err.Error())
			}
		}
		return regions, nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch "+level)
	}
	return v.([]wilayah.Region), nil
}

func (s *service) cached(ctx context.Context, key string) ([]wilayah.Region, bool) {
	if s.cache == nil {
		return nil, false
	}
	var regions []wilayah.Region
	err := s.cache.GetJSON(ctx, key, &regions)
	if err == nil {
		return regions, true
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "read locations cache failed: "+err.Error())
	}
	return nil, false
}

func (s *service) key(level, code string) string {
	if s.cache == nil {
		return level + ":" + code
	}
	if code == "" {
		return s.cache.CacheKey("locations", level)
	}
	return s.cache.CacheKey("locations", level, code)
}
