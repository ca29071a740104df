package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/charlesng35/autodetail/pkg/errors"
)

type countingProvider struct {
	calls atomic.Int32
	table Table
	err   error
	delay time.Duration
}

func (p *countingProvider) Latest(ctx context.Context, base string) (Table, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return Table{}, p.err
	}
	return p.table, nil
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cache := NewCache(time.Hour, WithCacheClock(func() time.Time { return now }))
	provider := &countingProvider{table: Table{Base: "USD", Rates: map[string]float64{"AZN": 1.7}}}
	ctx := context.Background()

	_, err := cache.GetOrLoad(ctx, "USD", provider.Latest)
	require.NoError(t, err)
	_, err = cache.GetOrLoad(ctx, "usd", provider.Latest)
	require.NoError(t, err)
	require.EqualValues(t, 1, provider.calls.Load(), "base lookup is case-insensitive and cached")

	now = now.Add(59 * time.Minute)
	_, err = cache.GetOrLoad(ctx, "USD", provider.Latest)
	require.NoError(t, err)
	require.EqualValues(t, 1, provider.calls.Load())

	now = now.Add(time.Minute)
	_, err = cache.GetOrLoad(ctx, "USD", provider.Latest)
	require.NoError(t, err)
	require.EqualValues(t, 2, provider.calls.Load())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewCache(time.Hour)
	provider := &countingProvider{err: errors.New("boom")}

	_, err := cache.GetOrLoad(context.Background(), "USD", provider.Latest)
	require.Error(t, err)
	_, ok := cache.Get("USD")
	require.False(t, ok)
}

func TestCacheCoalescesConcurrentMisses(t *testing.T) {
	cache := NewCache(time.Hour)
	provider := &countingProvider{table: Table{Rates: map[string]float64{"EUR": 0.9}}, delay: 50 * time.Millisecond}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetOrLoad(context.Background(), "USD", provider.Latest)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, provider.calls.Load())
}

func TestServiceGetRate(t *testing.T) {
	provider := &countingProvider{table: Table{Base: "USD", Rates: map[string]float64{"AZN": 1.7}, Updated: "Fri, 01 Mar 2024 00:00:01 +0000"}}
	svc := NewService(provider, NewCache(time.Hour), "", "")

	quote, err := svc.GetRate(context.Background(), "", "")
	require.NoError(t, err)
	require.Equal(t, "USD", quote.Base)
	require.Equal(t, "AZN", quote.Target)
	require.InDelta(t, 1.7, quote.Rate, 1e-9)
	require.NotNil(t, quote.Updated)

	_, err = svc.GetRate(context.Background(), "usd", "xyz")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestServiceMapsProviderFailure(t *testing.T) {
	svc := NewService(&countingProvider{err: errors.New("down")}, nil, "", "")
	_, err := svc.GetRate(context.Background(), "USD", "AZN")
	require.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestHTTPProviderDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v6/latest/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"success","base_code":"USD","time_last_update_utc":"today","rates":{"AZN":1.7,"EUR":0.92}}`))
	}))
	t.Cleanup(server.Close)

	provider := NewHTTPProvider(server.URL+"/v6/latest/", WithRateLimit(0, 0))
	table, err := provider.Latest(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, "USD", table.Base)
	require.InDelta(t, 0.92, table.Rates["EUR"], 1e-9)
	require.Equal(t, "today", table.Updated)
}

func TestHTTPProviderRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	provider := NewHTTPProvider(server.URL)
	_, err := provider.Latest(context.Background(), "USD")
	require.Error(t, err)
}

func TestCacheLoadSurvivesCallerCancellation(t *testing.T) {
	cache := NewCache(time.Hour)
	started := make(chan struct{})
	release := make(chan struct{})
	loadErr := make(chan error, 1)

	load := func(ctx context.Context, base string) (Table, error) {
		close(started)
		<-release
		loadErr <- ctx.Err()
		return Table{Base: base, Rates: map[string]float64{"AZN": 1.7}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	callerErr := make(chan error, 1)
	go func() {
		_, err := cache.GetOrLoad(ctx, "USD", load)
		callerErr <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-callerErr, context.Canceled)

	close(release)
	require.NoError(t, <-loadErr, "the shared load does not inherit the caller's cancellation")
	require.Eventually(t, func() bool {
		_, ok := cache.Get("USD")
		return ok
	}, time.Second, 10*time.Millisecond)

	table, err := cache.GetOrLoad(context.Background(), "USD", func(context.Context, string) (Table, error) {
		return Table{}, errors.New("should not load again")
	})
	require.NoError(t, err)
	require.Equal(t, 1.7, table.Rates["AZN"])
}
