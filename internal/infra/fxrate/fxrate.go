package fxrate

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"bali-advisory/internal/infra/cache"
)

const (
	cacheKey = "fx:USD:IDR"
	cacheTTL = 6 * time.Hour
)

// Source returns a live USD→IDR rate.
type Source interface {
	USDRate(ctx context.Context) (float64, error)
}

// Provider resolves the checkout rate: cache, then the live source, then the
// configured fallback. It never fails.
type Provider struct {
	cache    cache.Cache
	source   Source
	fallback float64
	log      zerolog.Logger
}

// New builds a Provider. source may be nil when no CRM is configured.
func New(c cache.Cache, source Source, fallback float64, log zerolog.Logger) *Provider {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Provider{cache: c, source: source, fallback: fallback, log: log}
}

func (p *Provider) Fallback() float64 { return p.fallback }

// USDToIDR returns the rate and whether it came from the fallback constant.
func (p *Provider) USDToIDR(ctx context.Context) (float64, bool) {
	if v, ok, err := p.cache.Get(ctx, cacheKey); err == nil && ok {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			return rate, false
		}
	}

	if p.source != nil {
		rate, err := p.source.USDRate(ctx)
		if err == nil && rate > 0 {
			if err := p.cache.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), cacheTTL); err != nil {
				p.log.Warn().Err(err).Msg("fx rate cache write failed")
			}
			return rate, false
		}
		p.log.Warn().Err(err).Float64("fallback", p.fallback).Msg("fx rate unavailable, using fallback")
	}

	return p.fallback, true
}
