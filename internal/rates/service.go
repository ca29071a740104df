package rates

import (
	"context"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/logger"
)

// Default currency pair used when a request omits one.
const (
	DefaultBase   = "USD"
	DefaultTarget = "AZN"
)

// Quote is a single conversion rate.
type Quote struct {
	Base    string  `json:"base"`
	Target  string  `json:"target"`
	Rate    float64 `json:"rate"`
	Updated *string `json:"updated"`
}

// Service answers rate queries through the cache.
type Service struct {
	provider      Provider
	cache         *Cache
	defaultBase   string
	defaultTarget string
}

// NewService wires provider and cache. Empty defaults fall back to USD/AZN.
func NewService(provider Provider, cache *Cache, defaultBase, defaultTarget string) *Service {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	if strings.TrimSpace(defaultBase) == "" {
		defaultBase = DefaultBase
	}
	if strings.TrimSpace(defaultTarget) == "" {
		defaultTarget = DefaultTarget
	}
	return &Service{
		provider:      provider,
		cache:         cache,
		defaultBase:   strings.ToUpper(defaultBase),
		defaultTarget: strings.ToUpper(defaultTarget),
	}
}

// GetRate returns the base→target rate. A missing target is NotFound and a
// provider failure is reported as an upstream error.
func (s *Service) GetRate(ctx context.Context, base, target string) (Quote, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = s.defaultBase
	}
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		target = s.defaultTarget
	}

	table, err := s.cache.GetOrLoad(ctx, base, s.provider.Latest)
	if err != nil {
		logger.WithModule("rates").Warn("rate lookup failed", zap.String("base", base), zap.Error(err))
		return Quote{}, appErrors.ErrUpstream.WithInternal(err)
	}

	value, ok := table.Rates[target]
	if !ok || value == 0 {
		return Quote{}, appErrors.NewNotFound("rate")
	}

	quote := Quote{Base: base, Target: target, Rate: value}
	if table.Updated != "" {
		updated := table.Updated
		quote.Updated = &updated
	}
	return quote, nil
}
