package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/repository"
	"pricing-service/internal/infrastructure/metrics"
	"pricing-service/pkg/logger"
)

// LifecycleManager keeps the persisted rule status in line with rule dates
type LifecycleManager struct {
	store        repository.RuleStore
	displayCache *ActiveRulesCache
}

func NewLifecycleManager(store repository.RuleStore, displayCache *ActiveRulesCache) *LifecycleManager {
	return &LifecycleManager{store: store, displayCache: displayCache}
}

// DetermineStatus derives a status from dates alone
func (m *LifecycleManager) DetermineStatus(start, end, now time.Time) model.RuleStatus {
	return model.DetermineStatus(start, end, now)
}

// Reconcile moves drifted rules to the status their dates imply at now:
//   - active or scheduled rules whose end has passed become expired
//   - scheduled rules whose window contains now become active
//
// Running it twice with the same now changes nothing the second time.
func (m *LifecycleManager) Reconcile(ctx context.Context, now time.Time) (*model.ReconcileResult, error) {
	ctx, span := tracer.Start(ctx, "discount.Reconcile")
	defer span.End()

	candidates, err := m.store.FindDriftCandidates(ctx, now)
	if err != nil {
		spanFail(span, err)
		return nil, fmt.Errorf("find drift candidates: %w", err)
	}

	var toExpire, toActivate []uuid.UUID
	for _, rule := range candidates {
		switch {
		case (rule.Status == model.RuleStatusActive || rule.Status == model.RuleStatusScheduled) &&
			!now.Before(rule.EndDate):
			toExpire = append(toExpire, rule.ID)
		case rule.Status == model.RuleStatusScheduled && rule.IsActiveAt(now):
			toActivate = append(toActivate, rule.ID)
		}
	}

	result := &model.ReconcileResult{}

	if len(toExpire) > 0 {
		n, err := m.store.BulkUpdateStatus(ctx, toExpire, model.RuleStatusExpired)
		if err != nil {
			spanFail(span, err)
			return nil, fmt.Errorf("expire rules: %w", err)
		}
		result.ExpiredCount = n
		metrics.StatusTransitions.WithLabelValues(string(model.RuleStatusExpired)).Add(float64(n))
	}

	if len(toActivate) > 0 {
		n, err := m.store.BulkUpdateStatus(ctx, toActivate, model.RuleStatusActive)
		if err != nil {
			spanFail(span, err)
			return nil, fmt.Errorf("activate rules: %w", err)
		}
		result.ActivatedCount = n
		metrics.StatusTransitions.WithLabelValues(string(model.RuleStatusActive)).Add(float64(n))
	}

	if result.ExpiredCount+result.ActivatedCount > 0 && m.displayCache != nil {
		m.displayCache.Invalidate(ctx)
	}

	span.SetAttributes(
		attribute.Int64("rules.expired", result.ExpiredCount),
		attribute.Int64("rules.activated", result.ActivatedCount),
	)
	logger.Info("Discount rule statuses reconciled", map[string]interface{}{
		"expired":   result.ExpiredCount,
		"activated": result.ActivatedCount,
		"at":        now.Format(time.RFC3339),
	})
	return result, nil
}
