package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is the kind of price effect a rule has.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
	DiscountTypeBuyXGetY    DiscountType = "buy_x_get_y"
)

// StackingRank orders discount types inside the same priority band.
// Percentage discounts apply before fixed amounts.
func (t DiscountType) StackingRank() int {
	switch t {
	case DiscountTypePercentage:
		return 0
	case DiscountTypeFixedAmount:
		return 1
	case DiscountTypeBuyXGetY:
		return 2
	default:
		return 3
	}
}

// ApplicableTo is the scope of products a rule targets.
type ApplicableTo string

const (
	AppliesToAllProducts        ApplicableTo = "all_products"
	AppliesToSpecificCategories ApplicableTo = "specific_categories"
	AppliesToSpecificProducts   ApplicableTo = "specific_products"
)

// RuleStatus is the persisted lifecycle state of a rule.
type RuleStatus string

const (
	RuleStatusScheduled RuleStatus = "scheduled"
	RuleStatusActive    RuleStatus = "active"
	RuleStatusExpired   RuleStatus = "expired"
)

// DiscountRule is a promotional rule stored in the discount_rules table
type DiscountRule struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`

	// Price effect
	DiscountType    DiscountType     `json:"discount_type" db:"discount_type"`
	DiscountValue   decimal.Decimal  `json:"discount_value" db:"discount_value"`
	PercentageValue *decimal.Decimal `json:"percentage_value,omitempty" db:"percentage_value"`
	BuyQuantity     *int             `json:"buy_quantity,omitempty" db:"buy_quantity"`
	GetQuantity     *int             `json:"get_quantity,omitempty" db:"get_quantity"`

	// Scope
	ApplicableTo ApplicableTo `json:"applicable_to" db:"applicable_to"`
	CategoryIDs  []uuid.UUID  `json:"category_ids" db:"category_ids"`
	ProductIDs   []uuid.UUID  `json:"product_ids" db:"product_ids"`

	// Validity window [StartDate, EndDate)
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   time.Time  `json:"end_date" db:"end_date"`
	Status    RuleStatus `json:"status" db:"status"`

	// Stacking
	AllowStacking bool `json:"allow_stacking" db:"allow_stacking"`
	Priority      int  `json:"priority" db:"priority"`

	// Usage bookkeeping, not consulted by price math
	MaxUsesPerCustomer *int            `json:"max_uses_per_customer,omitempty" db:"max_uses_per_customer"`
	MaxTotalUses       *int            `json:"max_total_uses,omitempty" db:"max_total_uses"`
	CurrentTotalUses   int             `json:"current_total_uses" db:"current_total_uses"`
	MinPurchaseAmount  decimal.Decimal `json:"min_purchase_amount" db:"min_purchase_amount"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DetermineStatus derives the lifecycle state of a [start, end) window at now.
func DetermineStatus(start, end, now time.Time) RuleStatus {
	if now.Before(start) {
		return RuleStatusScheduled
	}
	if now.Before(end) {
		return RuleStatusActive
	}
	return RuleStatusExpired
}

// IsActiveAt reports whether now falls inside the rule's validity window.
func (r *DiscountRule) IsActiveAt(now time.Time) bool {
	return !now.Before(r.StartDate) && now.Before(r.EndDate)
}

// Applies reports whether the rule's scope covers the given product and category.
// A missing product or category only matches rules that target all products.
func (r *DiscountRule) Applies(productID, categoryID *uuid.UUID) bool {
	switch r.ApplicableTo {
	case AppliesToAllProducts:
		return true
	case AppliesToSpecificCategories:
		return categoryID != nil && containsID(r.CategoryIDs, *categoryID)
	case AppliesToSpecificProducts:
		return productID != nil && containsID(r.ProductIDs, *productID)
	default:
		return false
	}
}

// ComparisonValue is the magnitude used when picking the single best exclusive rule.
func (r *DiscountRule) ComparisonValue() decimal.Decimal {
	if r.DiscountType == DiscountTypePercentage && r.PercentageValue != nil {
		return *r.PercentageValue
	}
	return r.DiscountValue
}

// Normalize clears scope sets that don't belong to ApplicableTo and keeps
// DiscountValue in sync with PercentageValue for percentage rules.
func (r *DiscountRule) Normalize() {
	switch r.ApplicableTo {
	case AppliesToAllProducts:
		r.CategoryIDs = nil
		r.ProductIDs = nil
	case AppliesToSpecificCategories:
		r.ProductIDs = nil
	case AppliesToSpecificProducts:
		r.CategoryIDs = nil
	}

	switch r.DiscountType {
	case DiscountTypePercentage:
		if r.PercentageValue != nil {
			r.DiscountValue = *r.PercentageValue
		}
		r.BuyQuantity = nil
		r.GetQuantity = nil
	case DiscountTypeFixedAmount:
		r.PercentageValue = nil
		r.BuyQuantity = nil
		r.GetQuantity = nil
	case DiscountTypeBuyXGetY:
		r.PercentageValue = nil
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
