package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

const (
	snapshotCacheKey     = "agenda:snapshot"
	snapshotCachePattern = "agenda:*"
)

type professionalSource interface {
	All(ctx context.Context) ([]models.Professional, error)
}

type clientSource interface {
	All(ctx context.Context) ([]models.Client, error)
}

type serviceSource interface {
	All(ctx context.Context) ([]models.Service, error)
}

type locationSource interface {
	All(ctx context.Context) ([]models.ServiceLocation, error)
}

type appointmentSource interface {
	All(ctx context.Context) ([]models.Appointment, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AgendaSources groups the five collections a snapshot is built from.
type AgendaSources struct {
	Professionals professionalSource
	Clients       clientSource
	Services      serviceSource
	Locations     locationSource
	Appointments  appointmentSource
}

// AgendaConfig tunes snapshot loading.
type AgendaConfig struct {
	LoadTimeout time.Duration
	CacheTTL    time.Duration
}

// AgendaService loads the full agenda snapshot and derives the joined, role filtered appointment view.
type AgendaService struct {
	sources AgendaSources
	cache   snapshotCache
	metrics *MetricsService
	config  AgendaConfig
	logger  *zap.Logger
	group   singleflight.Group

	// generation advances on every Invalidate. Loads started under an older generation never reach the cache.
	generation atomic.Uint64
}

// NewAgendaService constructs an AgendaService. cache may be nil.
func NewAgendaService(sources AgendaSources, cache snapshotCache, metrics *MetricsService, logger *zap.Logger, cfg AgendaConfig) *AgendaService {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{sources: sources, cache: cache, metrics: metrics, config: cfg, logger: logger}
}

// Snapshot returns the current five collections, from cache when possible. Concurrent misses share
// one load, which keeps running when an individual caller goes away.
func (s *AgendaService) Snapshot(ctx context.Context) (*agenda.Snapshot, error) {
	gen := s.generation.Load()
	if s.cache != nil {
		var cached agenda.Snapshot
		if hit, _ := s.cache.Get(ctx, snapshotCacheKey, &cached); hit {
			return &cached, nil
		}
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fmt.Sprintf("%s:%d", snapshotCacheKey, gen), func() (interface{}, error) {
		return s.load(loadCtx, gen)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*agenda.Snapshot), nil
	case <-ctx.Done():
		return nil, snapshotError(ctx.Err(), errors.Is(ctx.Err(), context.DeadlineExceeded))
	}
}

func (s *AgendaService) load(ctx context.Context, gen uint64) (*agenda.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.LoadTimeout)
	defer cancel()

	start := time.Now()
	var snap agenda.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(fetchCollection(gctx, "professionals", s.metrics, s.sources.Professionals.All, &snap.Professionals))
	g.Go(fetchCollection(gctx, "clients", s.metrics, s.sources.Clients.All, &snap.Clients))
	g.Go(fetchCollection(gctx, "services", s.metrics, s.sources.Services.All, &snap.Services))
	g.Go(fetchCollection(gctx, "locations", s.metrics, s.sources.Locations.All, &snap.Locations))
	g.Go(fetchCollection(gctx, "appointments", s.metrics, s.sources.Appointments.All, &snap.Appointments))

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	s.metrics.ObserveSnapshotLoad(time.Since(start), err)
	if err != nil {
		s.logger.Error("agenda snapshot load failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, snapshotError(err, errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded))
	}

	s.store(ctx, gen, &snap)
	return &snap, nil
}

// store caches snap unless an invalidation happened after gen was read. A write that
// overlaps an invalidation is removed again.
func (s *AgendaService) store(ctx context.Context, gen uint64, snap *agenda.Snapshot) {
	if s.cache == nil || s.generation.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, snap, s.config.CacheTTL); err != nil {
		return
	}
	if s.generation.Load() != gen {
		if err := s.cache.Invalidate(ctx, snapshotCacheKey); err != nil {
			s.logger.Warn("stale agenda snapshot could not be dropped", zap.Error(err))
		}
	}
}

func snapshotError(err error, timedOut bool) error {
	if timedOut {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, "agenda load timed out")
	}
	return appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load agenda")
}

// fetchCollection loads one collection into dst and records its query latency.
func fetchCollection[T any](ctx context.Context, name string, metrics *MetricsService, all func(context.Context) ([]T, error), dst *[]T) func() error {
	return func() error {
		start := time.Now()
		items, err := all(ctx)
		metrics.ObserveDBQuery(name, time.Since(start))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = items
		return nil
	}
}

// Invalidate drops cached agenda data so the next read reloads every collection.
func (s *AgendaService) Invalidate(ctx context.Context) {
	s.generation.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, snapshotCachePattern); err != nil {
		s.logger.Warn("agenda cache invalidation failed", zap.Error(err))
	}
}

// Appointments returns the joined appointments visible to user together with the snapshot they came from.
func (s *AgendaService) Appointments(ctx context.Context, user models.SessionUser) ([]models.AppointmentWithDetails, *agenda.Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return agenda.ForUser(agenda.Join(*snap), user), snap, nil
}
