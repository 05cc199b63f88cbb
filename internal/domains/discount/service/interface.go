package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricing-service/internal/domains/discount/model"
)

type ServiceInterface interface {
	// Public methods
	GetActiveDiscountRules(ctx context.Context, now time.Time) ([]*model.DiscountRule, error)
	QuoteProduct(ctx context.Context, productID, categoryID *uuid.UUID, basePrice decimal.Decimal) (*model.PricedLineItem, error)
	PriceCart(ctx context.Context, items []model.CartLineItem) (*model.CartPricing, error)

	// Admin methods
	CreateRule(ctx context.Context, req *model.CreateRuleRequest) (*model.DiscountRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, req *model.UpdateRuleRequest) (*model.DiscountRule, error)
	GetRule(ctx context.Context, id uuid.UUID) (*model.DiscountRule, error)
	ListRules(ctx context.Context, filter *model.ListRulesFilter) ([]*model.DiscountRule, int, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	ReconcileStatuses(ctx context.Context) (*model.ReconcileResult, error)
	ListOrderDiscounts(ctx context.Context, orderID uuid.UUID) ([]*model.DiscountAuditRecord, error)
}

// CheckoutInterface is called by the order flow before an order is committed
type CheckoutInterface interface {
	ConfirmPricing(ctx context.Context, req *model.ConfirmPricingRequest) (*model.CartPricing, error)
}

// AuditPublisher fans applied discounts out to other systems.
type AuditPublisher interface {
	PublishApplied(ctx context.Context, records []*model.DiscountAuditRecord) error
}
