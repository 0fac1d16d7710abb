package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/modules/history"
)

// RefreshJob re-fetches every cached price series on a schedule so VaR and
// allocation requests keep working from reasonably fresh data.
type RefreshJob struct {
	provider *history.Provider
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshJob creates the cache refresh job.
func NewRefreshJob(provider *history.Provider, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RefreshJob{
		provider: provider,
		timeout:  timeout,
		log:      log.With().Str("job", "price_cache_refresh").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RefreshJob) Name() string {
	return "price_cache_refresh"
}

// Run refreshes every cached (symbol, days) pair. Individual failures fall
// through to the provider's synthetic path, so the job itself only logs.
func (j *RefreshJob) Run() error {
	keys := j.provider.CachedKeys()
	if len(keys) == 0 {
		return nil
	}

	refreshed := 0
	for _, key := range keys {
		if err := j.refreshOne(key); err != nil {
			j.log.Warn().
				Err(err).
				Str("symbol", key.Symbol).
				Int("days", key.Days).
				Msg("Cache refresh skipped entry")
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("total", len(keys)).
		Msg("Price cache refreshed")
	return nil
}

// refreshOne gives every key its own timeout. The budget covers a single
// external fetch; sharing one deadline across the whole run would starve the
// later keys and push their previously fetched series onto the synthetic path.
func (j *RefreshJob) refreshOne(key history.CachedKey) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.provider.Refresh(ctx, key.Symbol, key.Days)
}
