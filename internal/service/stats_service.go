package service

import (
	"context"

	"github.com/neo-scanner/internal/logging"
	"github.com/neo-scanner/internal/models"
	"github.com/neo-scanner/internal/storage"
)

// StatsReader is the read-side view of the record store.
type StatsReader interface {
	Overview(ctx context.Context) (*models.StatsOverview, error)
	ClosestApproaches(ctx context.Context, limit int) ([]models.NamedApproach, error)
	BrightestAsteroids(ctx context.Context, limit int) ([]models.Asteroid, error)
}

// StatsService serves aggregate read queries, with an optional Redis-backed
// cache in front of the database. A nil cache disables caching.
type StatsService struct {
	reader StatsReader
	cache  *storage.QueryCache
}

func NewStatsService(reader StatsReader, cache *storage.QueryCache) *StatsService {
	return &StatsService{
		reader: reader,
		cache:  cache,
	}
}

func (s *StatsService) Overview(ctx context.Context) (*models.StatsOverview, error) {
	if s.cache == nil {
		return s.reader.Overview(ctx)
	}

	key := s.cache.Key("overview")
	var cached models.StatsOverview
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Stats cache read failed, querying database")
	} else if hit {
		return &cached, nil
	}

	overview, err := s.reader.Overview(ctx)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, key, overview)
	return overview, nil
}

func (s *StatsService) ClosestApproaches(ctx context.Context, limit int) ([]models.NamedApproach, error) {
	if s.cache == nil {
		return s.reader.ClosestApproaches(ctx, limit)
	}

	key := s.cache.Key("closest", limit)
	var cached []models.NamedApproach
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Stats cache read failed, querying database")
	} else if hit {
		return cached, nil
	}

	approaches, err := s.reader.ClosestApproaches(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, key, approaches)
	return approaches, nil
}

func (s *StatsService) BrightestAsteroids(ctx context.Context, limit int) ([]models.Asteroid, error) {
	if s.cache == nil {
		return s.reader.BrightestAsteroids(ctx, limit)
	}

	key := s.cache.Key("brightest", limit)
	var cached []models.Asteroid
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Stats cache read failed, querying database")
	} else if hit {
		return cached, nil
	}

	asteroids, err := s.reader.BrightestAsteroids(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, key, asteroids)
	return asteroids, nil
}

// populate writes through to the cache without failing the request.
func (s *StatsService) populate(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Stats cache write failed")
	}
}
