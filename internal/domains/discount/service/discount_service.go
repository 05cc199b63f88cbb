package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/repository"
	"pricing-service/pkg/logger"
)

// discountService handles rule administration and display pricing
type discountService struct {
	store        repository.RuleStore
	audits       repository.AuditRepository
	revalidator  *CartRevalidator
	lifecycle    *LifecycleManager
	displayCache *ActiveRulesCache
	now          func() time.Time
}

func NewDiscountService(
	store repository.RuleStore,
	audits repository.AuditRepository,
	revalidator *CartRevalidator,
	lifecycle *LifecycleManager,
	displayCache *ActiveRulesCache,
) ServiceInterface {
	return &discountService{
		store:        store,
		audits:       audits,
		revalidator:  revalidator,
		lifecycle:    lifecycle,
		displayCache: displayCache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// -------------------------------------------------------------------
// PUBLIC
// -------------------------------------------------------------------

func (s *discountService) GetActiveDiscountRules(ctx context.Context, now time.Time) ([]*model.DiscountRule, error) {
	rules, err := s.displayCache.Get(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("get active discount rules: %w", err)
	}
	return rules, nil
}

func (s *discountService) QuoteProduct(
	ctx context.Context,
	productID, categoryID *uuid.UUID,
	basePrice decimal.Decimal,
) (*model.PricedLineItem, error) {
	return s.revalidator.Quote(ctx, productID, categoryID, basePrice, s.now())
}

func (s *discountService) PriceCart(ctx context.Context, items []model.CartLineItem) (*model.CartPricing, error) {
	return s.revalidator.Revalidate(ctx, items, s.now())
}

// -------------------------------------------------------------------
// ADMIN
// -------------------------------------------------------------------

// CreateRule validates the full rule before anything is written.
// Status is derived from the dates, never taken from input.
func (s *discountService) CreateRule(ctx context.Context, req *model.CreateRuleRequest) (*model.DiscountRule, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	rule, err := req.ToRule()
	if err != nil {
		return nil, model.NewValidationError(err)
	}

	now := s.now()
	rule.Status = s.lifecycle.DetermineStatus(rule.StartDate, rule.EndDate, now)
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := rule.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.store.Insert(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	s.displayCache.Invalidate(ctx)

	logger.Info("Discount rule created", map[string]interface{}{
		"rule_id": rule.ID.String(),
		"type":    rule.DiscountType,
		"status":  rule.Status,
	})
	return rule, nil
}

// UpdateRule merges the change into the stored rule, re-validates the whole
// result and re-derives status from the merged dates.
func (s *discountService) UpdateRule(ctx context.Context, id uuid.UUID, req *model.UpdateRuleRequest) (*model.DiscountRule, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}

	merged := *existing
	if err := req.ApplyTo(&merged); err != nil {
		return nil, model.NewValidationError(err)
	}

	now := s.now()
	merged.Status = s.lifecycle.DetermineStatus(merged.StartDate, merged.EndDate, now)
	merged.UpdatedAt = now

	if err := merged.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.store.Update(ctx, &merged); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	s.displayCache.Invalidate(ctx)

	logger.Info("Discount rule updated", map[string]interface{}{
		"rule_id": id.String(),
		"status":  merged.Status,
	})
	return &merged, nil
}

func (s *discountService) GetRule(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error) {
	return s.store.FindByID(ctx, id)
}

func (s *discountService) ListRules(ctx context.Context, filter *model.ListRulesFilter) ([]*model.DiscountRule, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, model.NewValidationError(err)
	}
	return s.store.List(ctx, filter)
}

// DeleteRule refuses rules that already appear in an order's discount trail
func (s *discountService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	refs, err := s.audits.CountByRule(ctx, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if refs > 0 {
		return model.ErrRuleReferenced
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.displayCache.Invalidate(ctx)

	logger.Info("Discount rule deleted", map[string]interface{}{"rule_id": id.String()})
	return nil
}

func (s *discountService) ReconcileStatuses(ctx context.Context) (*model.ReconcileResult, error) {
	return s.lifecycle.Reconcile(ctx, s.now())
}

func (s *discountService) ListOrderDiscounts(ctx context.Context, orderID uuid.UUID) ([]*model.DiscountAuditRecord, error) {
	return s.audits.ListByOrder(ctx, orderID)
}
