package processor

import (
	"context"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Warmer - то, что умеет заполнить кеш списков
type Warmer interface {
	WarmCache(ctx context.Context) error
}

// CacheWarmer периодически прогревает кеш представлений
type CacheWarmer struct {
	cron   *cron.Cron
	warmer Warmer
}

func NewCacheWarmer(warmer Warmer) *CacheWarmer {
	cronLogger := logger.With().Str("component", "cache_warmer").Logger()
	c := cron.New(cron.WithLogger(cron.PrintfLogger(&cronLogger)))

	return &CacheWarmer{
		cron:   c,
		warmer: warmer,
	}
}

func (w *CacheWarmer) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cache warmer")

	if _, err := w.cron.AddFunc(schedule, func() { w.run(ctx) }); err != nil {
		return err
	}

	w.cron.Start()

	// первый прогрев сразу, не дожидаясь расписания
	w.run(ctx)

	return nil
}

func (w *CacheWarmer) Stop() {
	logger.Info().Msg("Stopping cache warmer...")
	ctx := w.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cache warmer stopped")
}

func (w *CacheWarmer) GetEntries() []cron.Entry {
	return w.cron.Entries()
}

func (w *CacheWarmer) run(ctx context.Context) {
	if err := w.warmer.WarmCache(ctx); err != nil {
		metrics.CacheWarmRuns.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Msg("Cache warm-up failed")
		return
	}
	metrics.CacheWarmRuns.WithLabelValues("success").Inc()
	logger.Debug().Msg("Cache warm-up completed")
}
