// Package usage merges cached and remote GLM usage into one snapshot.
package usage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/store"
)

// Fetcher is the remote side of the orchestrator. *glm.Client satisfies it.
type Fetcher interface {
	FetchMonthlyUsage(ctx context.Context) (model.MonthlyUsage, error)
	FetchDailyUsage(ctx context.Context) (model.DailyUsage, error)
	FetchQuotaLimit(ctx context.Context) (model.QuotaStatus, error)
}

// Service serves each metric from cache while fresh and refetches the rest.
type Service struct {
	fetcher  Fetcher
	cache    *store.Store
	platform string
	log      *zap.Logger
}

// NewService creates an orchestrator. A nil logger discards output.
func NewService(fetcher Fetcher, cache *store.Store, platform string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:  fetcher,
		cache:    cache,
		platform: platform,
		log:      logger.Named("usage"),
	}
}

// Platform returns the platform name attached to every snapshot.
func (s *Service) Platform() string {
	return s.platform
}

// Snapshot returns the merged usage for all metrics. It never fails as a
// whole because of a single metric; only an unexpected panic in the merge
// itself produces a snapshot carrying just Error and Platform.
func (s *Service) Snapshot(ctx context.Context) (snap model.UsageSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("snapshot aborted", zap.Any("panic", r))
			snap = model.UsageSnapshot{Platform: s.platform, Error: fmt.Sprint(r)}
		}
	}()

	start := time.Now()
	snap = model.UsageSnapshot{
		Platform: s.platform,
		Origins:  make(map[model.Metric]model.Origin, len(model.Metrics)),
	}

	var (
		monthly model.MonthlyUsage
		daily   model.DailyUsage
		quota   model.QuotaStatus
	)
	haveMonthly := s.cache.Load(model.MetricMonthly, &monthly)
	haveDaily := s.cache.Load(model.MetricDaily, &daily)
	haveQuota := s.cache.Load(model.MetricQuota, &quota)

	if haveMonthly && haveDaily && haveQuota {
		s.log.Debug("all metrics served from cache")
		for _, m := range model.Metrics {
			snap.Origins[m] = model.OriginCache
		}
		snap.Monthly, snap.Daily, snap.Quota = &monthly, &daily, &quota
		return snap
	}

	// Each task writes only its own result slot and never returns an error,
	// so one failing metric cannot cancel its siblings.
	var (
		monthlyRes fetchResult[model.MonthlyUsage]
		dailyRes   fetchResult[model.DailyUsage]
		quotaRes   fetchResult[model.QuotaStatus]
	)
	var g errgroup.Group
	if !haveMonthly {
		g.Go(func() error {
			monthlyRes = fetch(ctx, s, model.MetricMonthly, s.fetcher.FetchMonthlyUsage, FallbackMonthly)
			return nil
		})
	}
	if !haveDaily {
		g.Go(func() error {
			dailyRes = fetch(ctx, s, model.MetricDaily, s.fetcher.FetchDailyUsage, FallbackDaily)
			return nil
		})
	}
	if !haveQuota {
		g.Go(func() error {
			quotaRes = fetch(ctx, s, model.MetricQuota, s.fetcher.FetchQuotaLimit, FallbackQuota)
			return nil
		})
	}
	_ = g.Wait()

	monthly, snap.Origins[model.MetricMonthly] = merge(s, model.MetricMonthly, haveMonthly, monthly, monthlyRes)
	daily, snap.Origins[model.MetricDaily] = merge(s, model.MetricDaily, haveDaily, daily, dailyRes)
	quota, snap.Origins[model.MetricQuota] = merge(s, model.MetricQuota, haveQuota, quota, quotaRes)
	snap.Monthly, snap.Daily, snap.Quota = &monthly, &daily, &quota

	s.log.Debug("snapshot assembled",
		zap.Any("origins", snap.Origins),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap
}

// fetchResult is one task's outcome. Failed results already hold the fallback.
type fetchResult[T any] struct {
	value  T
	failed bool
}

func fetch[T any](ctx context.Context, s *Service, metric model.Metric, do func(context.Context) (T, error), fallback func() T) (res fetchResult[T]) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("fetch panicked", zap.String("metric", string(metric)), zap.Any("panic", r))
			res = fetchResult[T]{value: fallback(), failed: true}
		}
	}()

	v, err := do(ctx)
	if err != nil {
		s.log.Warn("fetch failed, using fallback", zap.String("metric", string(metric)), zap.Error(err))
		return fetchResult[T]{value: fallback(), failed: true}
	}
	return fetchResult[T]{value: v}
}

// merge picks the cached value or the fetched one, writing successful fetches back.
func merge[T any](s *Service, metric model.Metric, cached bool, cachedValue T, res fetchResult[T]) (T, model.Origin) {
	if cached {
		return cachedValue, model.OriginCache
	}
	if res.failed {
		return res.value, model.OriginFallback
	}
	if err := s.cache.Write(metric, res.value); err != nil {
		s.log.Debug("cache write failed", zap.String("metric", string(metric)), zap.Error(err))
	}
	return res.value, model.OriginRemote
}
