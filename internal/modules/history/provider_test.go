package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarag/riskfolio/internal/domain"
	"github.com/mkarag/riskfolio/pkg/logger"
)

type stubFetcher struct {
	mu     sync.Mutex
	points map[string][]domain.PricePoint
	err    error
	calls  int
}

func (f *stubFetcher) GetDailyHistory(_ context.Context, symbol string, days int) ([]domain.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.points[symbol], nil
}

func marketPoints(n int, base float64) []domain.PricePoint {
	points := make([]domain.PricePoint, n)
	start := time.Now().UTC().AddDate(0, 0, -n)
	for i := range points {
		points[i] = domain.PricePoint{
			TimestampMillis: start.AddDate(0, 0, i).UnixMilli(),
			Price:           base + float64(i),
		}
	}
	return points
}

func testProvider(fetcher Fetcher, maxEntries int) *Provider {
	log := logger.New(logger.Config{Level: "error"})
	return NewProvider(fetcher, nil, maxEntries, log)
}

func TestGetSeries_ValidatesParameters(t *testing.T) {
	p := testProvider(&stubFetcher{}, 10)

	_, err := p.GetSeries(context.Background(), "", 30)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = p.GetSeries(context.Background(), "BTC", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = p.GetSeries(context.Background(), "BTC", 366)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGetSeries_CachesBySymbolAndDays(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(30, 50000),
	}}
	p := testProvider(fetcher, 10)

	first, err := p.GetSeries(context.Background(), "BTC", 30)
	require.NoError(t, err)
	assert.Equal(t, domain.BasisMarket, first.Basis)
	assert.Equal(t, "btc", first.Symbol, "cache key uses the lowercased symbol")

	// Second call, different case, must hit the cache.
	second, err := p.GetSeries(context.Background(), "btc", 30)
	require.NoError(t, err)
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetSeries_DefensiveCopy(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(10, 100),
	}}
	p := testProvider(fetcher, 10)

	first, err := p.GetSeries(context.Background(), "BTC", 10)
	require.NoError(t, err)
	first.Points[0].Price = -1

	second, err := p.GetSeries(context.Background(), "BTC", 10)
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, second.Points[0].Price, "callers must not be able to mutate cached data")
}

func TestGetSeries_SyntheticFallbackIsDeterministic(t *testing.T) {
	failing := &stubFetcher{err: errors.New("upstream down")}

	// Two independent providers prove the determinism comes from the seed,
	// not the cache.
	a, err := testProvider(failing, 10).GetSeries(context.Background(), "UNKNOWN", 60)
	require.NoError(t, err)
	b, err := testProvider(failing, 10).GetSeries(context.Background(), "UNKNOWN", 60)
	require.NoError(t, err)

	assert.Equal(t, domain.BasisSynthetic, a.Basis)
	require.Len(t, a.Points, 60)
	assert.Equal(t, a.Points, b.Points, "same symbol and day count must yield identical synthetic series")
}

func TestGetSeries_SyntheticStepBounds(t *testing.T) {
	p := testProvider(&stubFetcher{err: errors.New("down")}, 10)

	series, err := p.GetSeries(context.Background(), "XYZ", 100)
	require.NoError(t, err)

	prev := syntheticBasePrice
	for i, point := range series.Points {
		factor := point.Price / prev
		assert.GreaterOrEqual(t, factor, 0.95, "step %d", i)
		assert.LessOrEqual(t, factor, 1.05, "step %d", i)
		prev = point.Price
	}
}

func TestGetSeries_SyntheticBaseReusesCachedPrice(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(90, 40000),
	}}
	p := testProvider(fetcher, 10)

	long, err := p.GetSeries(context.Background(), "BTC", 90)
	require.NoError(t, err)
	lastReal := long.LastPrice()

	// Subsequent fetches fail; a different day count for the same symbol
	// should walk from the cached price, not from 100.
	fetcher.mu.Lock()
	fetcher.err = errors.New("upstream down")
	fetcher.mu.Unlock()

	synthetic, err := p.GetSeries(context.Background(), "BTC", 30)
	require.NoError(t, err)
	require.Equal(t, domain.BasisSynthetic, synthetic.Basis)

	firstFactor := synthetic.Points[0].Price / lastReal
	assert.GreaterOrEqual(t, firstFactor, 0.95)
	assert.LessOrEqual(t, firstFactor, 1.05)
}

func TestCache_FIFOEvictionBelowHalf(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("down")}
	p := testProvider(fetcher, 6)

	for i := 0; i < 7; i++ {
		_, err := p.GetSeries(context.Background(), fmt.Sprintf("SYM%d", i), 10)
		require.NoError(t, err)
	}

	// Inserting the 7th entry exceeds the max of 6 and evicts oldest-first
	// until occupancy sits below half the maximum.
	assert.Equal(t, 2, p.CacheSize())

	// Oldest entries are gone, newest survive.
	keys := p.CachedKeys()
	symbols := make(map[string]bool)
	for _, k := range keys {
		symbols[k.Symbol] = true
	}
	assert.True(t, symbols["sym6"])
	assert.True(t, symbols["sym5"])
	assert.False(t, symbols["sym0"])
}

func TestRefresh_ValidationOnly(t *testing.T) {
	p := testProvider(&stubFetcher{err: errors.New("down")}, 10)

	assert.ErrorIs(t, p.Refresh(context.Background(), "", 30), domain.ErrInvalidParameter)
	assert.NoError(t, p.Refresh(context.Background(), "BTC", 30), "fetch failures recover via fallback")
}

func TestRefresh_ReplacesCachedSeries(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(10, 100),
	}}
	p := testProvider(fetcher, 10)

	_, err := p.GetSeries(context.Background(), "BTC", 10)
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.points["btc"] = marketPoints(10, 200)
	fetcher.mu.Unlock()

	require.NoError(t, p.Refresh(context.Background(), "BTC", 10))

	series, err := p.GetSeries(context.Background(), "BTC", 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, series.Points[0].Price, 200.0)
	assert.Equal(t, 2, fetcher.calls, "refresh must bypass the cache")
}

func TestCacheStatus(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(30, 100),
	}}
	p := testProvider(fetcher, 10)

	_, err := p.GetSeries(context.Background(), "BTC", 30)
	require.NoError(t, err)

	status, err := p.CacheStatus("BTC")
	require.NoError(t, err)
	assert.Equal(t, "btc", status["symbol"])
	assert.Equal(t, 1, status["entries"])

	_, err = p.CacheStatus(" ")
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestStoreRoundtrip(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	store, err := OpenStore(filepath.Join(t.TempDir(), "prices.db"), log)
	require.NoError(t, err)
	defer store.Close()

	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"eth": marketPoints(20, 3000),
	}}
	p := NewProvider(fetcher, store, 10, log)

	fetched, err := p.GetSeries(context.Background(), "ETH", 20)
	require.NoError(t, err)

	// A fresh provider with a dead fetcher must serve from the store.
	p2 := NewProvider(&stubFetcher{err: errors.New("down")}, store, 10, log)
	loaded, err := p2.GetSeries(context.Background(), "ETH", 20)
	require.NoError(t, err)

	assert.Equal(t, domain.BasisStore, loaded.Basis)
	assert.Equal(t, fetched.Points, loaded.Points)
}

func TestGetAssetHistories(t *testing.T) {
	fetcher := &stubFetcher{points: map[string][]domain.PricePoint{
		"btc": marketPoints(30, 50000),
		"eth": marketPoints(30, 3000),
	}}
	p := testProvider(fetcher, 10)

	histories, err := p.GetAssetHistories(context.Background(), []string{"BTC", "ETH", "btc"}, 30)
	require.NoError(t, err)
	require.Len(t, histories, 2, "duplicate symbols collapse")

	for sym, h := range histories {
		assert.Len(t, h.Prices, 30, sym)
		assert.Len(t, h.Returns, 29, sym)
	}
}
