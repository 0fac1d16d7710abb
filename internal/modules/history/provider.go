package history

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/pkg/formulas"
)

const (
	// MinDays and MaxDays bound the requested history window.
	MinDays = 1
	MaxDays = 365

	// syntheticBasePrice seeds a synthetic series when no cached price for
	// the symbol exists under any day count.
	syntheticBasePrice = 100.0

	// fanOutLimit bounds concurrent per-symbol fetches.
	fanOutLimit = 4
)

// Fetcher is the external historical-data source.
type Fetcher interface {
	GetDailyHistory(ctx context.Context, symbol string, days int) ([]domain.PricePoint, error)
}

// SeriesStore is the optional persistent warm cache under the in-memory one.
type SeriesStore interface {
	Load(symbol string, days int) (*domain.PriceSeries, error)
	Save(series *domain.PriceSeries) error
	Delete(symbol string, days int) error
}

// CachedKey identifies one cached series.
type CachedKey struct {
	Symbol string `json:"symbol"`
	Days   int    `json:"days"`
}

// Provider fetches and caches historical daily price series. Fetch and parse
// failures are recovered locally through the deterministic synthetic
// fallback; only parameter-validation errors propagate to callers.
type Provider struct {
	fetcher Fetcher
	store   SeriesStore // may be nil
	cache   *seriesCache
	log     zerolog.Logger
}

// NewProvider creates a price history provider with a bounded in-memory cache.
func NewProvider(fetcher Fetcher, store SeriesStore, maxCacheEntries int, log zerolog.Logger) *Provider {
	return &Provider{
		fetcher: fetcher,
		store:   store,
		cache:   newSeriesCache(maxCacheEntries),
		log:     log.With().Str("component", "history_provider").Logger(),
	}
}

func normalizeParams(symbol string, days int) (string, error) {
	if strings.TrimSpace(symbol) == "" {
		return "", domain.InvalidParameterf("symbol must not be empty")
	}
	if days < MinDays || days > MaxDays {
		return "", domain.InvalidParameterf("days must be in [%d, %d], got %d", MinDays, MaxDays, days)
	}
	return strings.ToLower(strings.TrimSpace(symbol)), nil
}

// GetSeries returns the daily price series for a symbol over the requested
// number of days. Callers always receive a private copy.
func (p *Provider) GetSeries(ctx context.Context, symbol string, days int) (*domain.PriceSeries, error) {
	sym, err := normalizeParams(symbol, days)
	if err != nil {
		return nil, err
	}

	if series, ok := p.cache.Get(sym, days); ok {
		return series, nil
	}

	if p.store != nil {
		stored, err := p.store.Load(sym, days)
		if err != nil {
			p.log.Warn().Err(err).Str("symbol", sym).Msg("Price store read failed")
		} else if stored != nil {
			p.cache.Put(stored)
			return stored.Clone(), nil
		}
	}

	return p.fetchOrFallback(ctx, sym, days), nil
}

// Refresh drops any cached series for (symbol, days) and re-fetches it.
// Like GetSeries, fetch failures fall through to the synthetic path.
func (p *Provider) Refresh(ctx context.Context, symbol string, days int) error {
	sym, err := normalizeParams(symbol, days)
	if err != nil {
		return err
	}

	p.cache.Delete(sym, days)
	p.fetchOrFallback(ctx, sym, days)
	return nil
}

func (p *Provider) fetchOrFallback(ctx context.Context, sym string, days int) *domain.PriceSeries {
	points, err := p.fetcher.GetDailyHistory(ctx, sym, days)
	if err != nil || len(points) == 0 {
		p.log.Warn().
			Err(err).
			Str("symbol", sym).
			Int("days", days).
			Msg("History fetch failed, generating synthetic series")
		series := p.syntheticSeries(sym, days)
		p.cache.Put(series)
		return series.Clone()
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].TimestampMillis < points[j].TimestampMillis
	})

	series := &domain.PriceSeries{
		Symbol:        sym,
		RequestedDays: days,
		Points:        points,
		Basis:         domain.BasisMarket,
		FetchedAt:     time.Now().UTC(),
	}

	p.cache.Put(series)
	if p.store != nil {
		if err := p.store.Save(series); err != nil {
			p.log.Warn().Err(err).Str("symbol", sym).Msg("Price store write failed")
		}
	}

	return series.Clone()
}

// syntheticSeries generates a deterministic pseudo-random walk for a symbol.
// The generator is seeded from the symbol's identity, so repeated calls for
// the same unknown symbol and day count yield identical series. The base
// price reuses the newest price of the longest cached series for the symbol
// when one exists under another day count.
func (p *Provider) syntheticSeries(sym string, days int) *domain.PriceSeries {
	base := syntheticBasePrice
	if prior := p.cache.longestFor(sym); prior != nil && prior.LastPrice() > 0 {
		base = prior.LastPrice()
	}

	h := fnv.New64a()
	h.Write([]byte(sym))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	anchor := time.Now().UTC().Truncate(24 * time.Hour)
	start := anchor.AddDate(0, 0, -(days - 1))

	points := make([]domain.PricePoint, days)
	price := base
	for i := 0; i < days; i++ {
		// Multiplicative step in [0.95, 1.05].
		price *= 0.95 + 0.10*rng.Float64()
		points[i] = domain.PricePoint{
			TimestampMillis: start.AddDate(0, 0, i).UnixMilli(),
			Price:           price,
		}
	}

	return &domain.PriceSeries{
		Symbol:        sym,
		RequestedDays: days,
		Points:        points,
		Basis:         domain.BasisSynthetic,
		FetchedAt:     anchor,
	}
}

// CacheStatus reports what is cached for a symbol across day counts.
func (p *Provider) CacheStatus(symbol string) (map[string]interface{}, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, domain.InvalidParameterf("symbol must not be empty")
	}
	sym := strings.ToLower(strings.TrimSpace(symbol))

	entries := p.cache.EntriesFor(sym)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RequestedDays < entries[j].RequestedDays
	})

	cached := make([]map[string]interface{}, 0, len(entries))
	for _, series := range entries {
		entry := map[string]interface{}{
			"days":       series.RequestedDays,
			"points":     len(series.Points),
			"basis":      series.Basis,
			"fetched_at": series.FetchedAt,
		}
		if len(series.Points) > 0 {
			entry["first_timestamp"] = series.Points[0].TimestampMillis
			entry["last_timestamp"] = series.Points[len(series.Points)-1].TimestampMillis
			entry["last_price"] = series.LastPrice()
		}
		cached = append(cached, entry)
	}

	return map[string]interface{}{
		"symbol":  sym,
		"entries": len(cached),
		"cached":  cached,
	}, nil
}

// CachedKeys returns every (symbol, days) pair currently cached, oldest first.
func (p *Provider) CachedKeys() []CachedKey {
	return p.cache.Keys()
}

// CacheSize returns the number of cached series.
func (p *Provider) CacheSize() int {
	return p.cache.Len()
}

// AssetHistory bundles the per-asset series data consumed by the risk and
// allocation modules.
type AssetHistory struct {
	Series  *domain.PriceSeries
	Prices  []float64
	Returns []float64
}

// GetAssetHistories fetches histories for a set of symbols concurrently
// (bounded fan-out) and derives their daily return series. Retrieval per
// asset is independent; results are keyed by the normalized symbol.
func (p *Provider) GetAssetHistories(ctx context.Context, symbols []string, days int) (map[string]*AssetHistory, error) {
	unique := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		sym, err := normalizeParams(symbol, days)
		if err != nil {
			return nil, err
		}
		if !seen[sym] {
			seen[sym] = true
			unique = append(unique, sym)
		}
	}

	var mu sync.Mutex
	out := make(map[string]*AssetHistory, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, sym := range unique {
		sym := sym
		g.Go(func() error {
			series, err := p.GetSeries(gctx, sym, days)
			if err != nil {
				return err
			}
			prices := series.Prices()
			mu.Lock()
			out[sym] = &AssetHistory{
				Series:  series,
				Prices:  prices,
				Returns: formulas.CalculateReturns(prices),
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
