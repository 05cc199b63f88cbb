package service

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/repository"
	"pricing-service/internal/infrastructure/metrics"
	"pricing-service/pkg/cache"
	"pricing-service/pkg/logger"
)

const activeRulesKey = "discount:active_rules"

// ActiveRulesCache serves the storefront listing of active rules.
// It is display-only: checkout pricing never reads from it.
type ActiveRulesCache struct {
	store repository.RuleStore
	cache cache.Cache // nil disables caching
	ttl   time.Duration
	sfg   singleflight.Group
}

func NewActiveRulesCache(store repository.RuleStore, c cache.Cache, ttl time.Duration) *ActiveRulesCache {
	return &ActiveRulesCache{store: store, cache: c, ttl: ttl}
}

// Get returns active rules, filtered again by now so an entry cached just
// before a rule ended never shows it. Concurrent callers share one load; it
// runs detached from the caller that started it, and a caller that gives up
// only stops its own wait.
func (c *ActiveRulesCache) Get(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(activeRulesKey, func() (interface{}, error) {
		return c.load(loadCtx, now)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}

	rules := res.Val.([]*model.DiscountRule)
	live := make([]*model.DiscountRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActiveAt(now) {
			live = append(live, r)
		}
	}
	return live, nil
}

// Invalidate drops the cached listing. Failures are logged, not returned.
func (c *ActiveRulesCache) Invalidate(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, activeRulesKey); err != nil {
		logger.Error("Failed to invalidate active discount cache", err)
	}
}

func (c *ActiveRulesCache) load(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	if c.cache != nil {
		var cached []*model.DiscountRule
		found, err := c.cache.Get(ctx, activeRulesKey, &cached)
		switch {
		case err != nil:
			metrics.DisplayCacheLookups.WithLabelValues("error").Inc()
			logger.Error("Active discount cache read failed", err)
		case found:
			metrics.DisplayCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.DisplayCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	rules, err := c.store.FindActiveRulesAt(ctx, now)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = []*model.DiscountRule{}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, activeRulesKey, rules, c.ttl); err != nil {
			logger.Error("Active discount cache write failed", err)
		}
	}
	return rules, nil
}
