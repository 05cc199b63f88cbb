package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppliedDiscount records one step of the sequential price fold.
type AppliedDiscount struct {
	RuleID        uuid.UUID       `json:"rule_id"`
	RuleName      string          `json:"rule_name"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Savings       decimal.Decimal `json:"savings"`
	PriceBefore   decimal.Decimal `json:"price_before"`
	PriceAfter    decimal.Decimal `json:"price_after"`
}

// PriceResult is the outcome of applying an ordered rule list to one base price.
type PriceResult struct {
	FinalPrice       decimal.Decimal   `json:"final_price"`
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts"`
	TotalSavings     decimal.Decimal   `json:"total_savings"`
}

// CartLineItem is supplied by the caller. Prices are per unit.
type CartLineItem struct {
	ProductID  uuid.UUID       `json:"product_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

func (i CartLineItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.By(requiredUUID("product id is required"))),
		validation.Field(&i.UnitPrice, validation.By(nonNegativeDecimal("unit price must be >= 0"))),
		validation.Field(&i.Quantity,
			validation.Required.Error("quantity is required"),
			validation.Min(1).Error("quantity must be >= 1"),
		),
	)
}

// PricedLineItem is a line item after revalidation.
type PricedLineItem struct {
	CartLineItem
	OriginalPrice    decimal.Decimal   `json:"original_price"`
	DiscountedPrice  decimal.Decimal   `json:"discounted_price"`
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts"`
	Savings          decimal.Decimal   `json:"savings"`
}

// CartPricing is the fresh pricing of a whole cart. TotalSavings sums
// per-unit savings and is not weighted by quantity.
type CartPricing struct {
	Items        []PricedLineItem `json:"items"`
	TotalSavings decimal.Decimal  `json:"total_savings"`
	PricedAt     time.Time        `json:"priced_at"`
}

// ReconcileResult counts the status transitions a reconcile pass made.
type ReconcileResult struct {
	ExpiredCount   int64 `json:"expired_count"`
	ActivatedCount int64 `json:"activated_count"`
}

// DiscountAuditRecord is one applied discount persisted against an order.
type DiscountAuditRecord struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OrderID    uuid.UUID  `json:"order_id" db:"order_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty" db:"customer_id"`
	ProductID  uuid.UUID  `json:"product_id" db:"product_id"`
	LineIndex  int        `json:"line_index" db:"line_index"`
	StepIndex  int        `json:"step_index" db:"step_index"`
	AppliedDiscount
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}
