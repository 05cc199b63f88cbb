package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/repository"
)

// ApplicabilityFilter selects the rules that apply to one catalog item at an instant
type ApplicabilityFilter struct {
	store repository.RuleStore
}

func NewApplicabilityFilter(store repository.RuleStore) *ApplicabilityFilter {
	return &ApplicabilityFilter{store: store}
}

// Evaluate fetches active rules and keeps those whose window contains now and
// whose scope covers the item. The store is queried on every call. Store
// errors are returned as-is and never retried here.
func (f *ApplicabilityFilter) Evaluate(
	ctx context.Context,
	productID *uuid.UUID,
	categoryID *uuid.UUID,
	now time.Time,
) ([]*model.DiscountRule, error) {
	ctx, span := tracer.Start(ctx, "discount.Evaluate")
	defer span.End()
	if productID != nil {
		span.SetAttributes(attribute.String("product.id", productID.String()))
	}

	rules, err := f.store.FindActiveRulesAt(ctx, now)
	if err != nil {
		spanFail(span, err)
		return nil, fmt.Errorf("evaluate applicable rules: %w", err)
	}

	applicable := make([]*model.DiscountRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Status != model.RuleStatusActive {
			continue
		}
		if !rule.IsActiveAt(now) {
			continue
		}
		if !rule.Applies(productID, categoryID) {
			continue
		}
		applicable = append(applicable, rule)
	}

	span.SetAttributes(
		attribute.Int("rules.fetched", len(rules)),
		attribute.Int("rules.applicable", len(applicable)),
	)
	return applicable, nil
}
