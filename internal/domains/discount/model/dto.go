package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -------------------------------------------------------------------
// ADMIN REQUESTS
// -------------------------------------------------------------------

// CreateRuleRequest - request to create a discount rule
type CreateRuleRequest struct {
	Name               string           `json:"name"`
	Description        *string          `json:"description"`
	DiscountType       string           `json:"discount_type"`
	DiscountValue      decimal.Decimal  `json:"discount_value"`
	PercentageValue    *decimal.Decimal `json:"percentage_value"`
	BuyQuantity        *int             `json:"buy_quantity"`
	GetQuantity        *int             `json:"get_quantity"`
	ApplicableTo       string           `json:"applicable_to"`
	CategoryIDs        []uuid.UUID      `json:"category_ids"`
	ProductIDs         []uuid.UUID      `json:"product_ids"`
	StartDate          string           `json:"start_date"` // RFC3339
	EndDate            string           `json:"end_date"`
	AllowStacking      bool             `json:"allow_stacking"`
	Priority           int              `json:"priority"`
	MaxUsesPerCustomer *int             `json:"max_uses_per_customer"`
	MaxTotalUses       *int             `json:"max_total_uses"`
	MinPurchaseAmount  decimal.Decimal  `json:"min_purchase_amount"`
}

// Validate checks request shape. Rule invariants are checked on the built rule.
func (r CreateRuleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil,
				validation.Length(0, 1000).Error("description must not exceed 1000 characters"),
			),
		),
		validation.Field(&r.DiscountType,
			validation.Required.Error("discount type is required"),
		),
		validation.Field(&r.ApplicableTo,
			validation.Required.Error("applicable_to is required"),
		),
		validation.Field(&r.StartDate,
			validation.Required.Error("start date is required"),
			validation.Date(time.RFC3339).Error("invalid time format (RFC3339)"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end date is required"),
			validation.Date(time.RFC3339).Error("invalid time format (RFC3339)"),
		),
	)
}

// ToRule builds an unsaved rule. Status and timestamps are set by the service.
func (r CreateRuleRequest) ToRule() (*DiscountRule, error) {
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		return nil, err
	}

	rule := &DiscountRule{
		ID:                 uuid.New(),
		Name:               r.Name,
		Description:        r.Description,
		DiscountType:       DiscountType(r.DiscountType),
		DiscountValue:      r.DiscountValue,
		PercentageValue:    r.PercentageValue,
		BuyQuantity:        r.BuyQuantity,
		GetQuantity:        r.GetQuantity,
		ApplicableTo:       ApplicableTo(r.ApplicableTo),
		CategoryIDs:        r.CategoryIDs,
		ProductIDs:         r.ProductIDs,
		StartDate:          start.UTC(),
		EndDate:            end.UTC(),
		AllowStacking:      r.AllowStacking,
		Priority:           r.Priority,
		MaxUsesPerCustomer: r.MaxUsesPerCustomer,
		MaxTotalUses:       r.MaxTotalUses,
		MinPurchaseAmount:  r.MinPurchaseAmount,
	}
	rule.Normalize()
	return rule, nil
}

// UpdateRuleRequest - partial update; nil fields are left unchanged
type UpdateRuleRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	DiscountType       *string          `json:"discount_type"`
	DiscountValue      *decimal.Decimal `json:"discount_value"`
	PercentageValue    *decimal.Decimal `json:"percentage_value"`
	BuyQuantity        *int             `json:"buy_quantity"`
	GetQuantity        *int             `json:"get_quantity"`
	ApplicableTo       *string          `json:"applicable_to"`
	CategoryIDs        []uuid.UUID      `json:"category_ids"`
	ProductIDs         []uuid.UUID      `json:"product_ids"`
	StartDate          *string          `json:"start_date"`
	EndDate            *string          `json:"end_date"`
	AllowStacking      *bool            `json:"allow_stacking"`
	Priority           *int             `json:"priority"`
	MaxUsesPerCustomer *int             `json:"max_uses_per_customer"`
	MaxTotalUses       *int             `json:"max_total_uses"`
	MinPurchaseAmount  *decimal.Decimal `json:"min_purchase_amount"`
}

func (r UpdateRuleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description,
			validation.When(r.Description != nil,
				validation.Length(0, 1000).Error("description must not exceed 1000 characters"),
			),
		),
		validation.Field(&r.StartDate,
			validation.When(r.StartDate != nil,
				validation.Date(time.RFC3339).Error("invalid time format (RFC3339)"),
			),
		),
		validation.Field(&r.EndDate,
			validation.When(r.EndDate != nil,
				validation.Date(time.RFC3339).Error("invalid time format (RFC3339)"),
			),
		),
		validation.Field(&r.Name, validation.By(r.rejectEmpty)),
	)
}

func (r UpdateRuleRequest) rejectEmpty(value interface{}) error {
	if r.Name == nil && r.Description == nil && r.DiscountType == nil && r.DiscountValue == nil &&
		r.PercentageValue == nil && r.BuyQuantity == nil && r.GetQuantity == nil &&
		r.ApplicableTo == nil && r.CategoryIDs == nil && r.ProductIDs == nil &&
		r.StartDate == nil && r.EndDate == nil && r.AllowStacking == nil && r.Priority == nil &&
		r.MaxUsesPerCustomer == nil && r.MaxTotalUses == nil && r.MinPurchaseAmount == nil {
		return errors.New("at least one field must be provided")
	}
	return nil
}

// ApplyTo merges the change into rule. The merged rule must be re-validated.
func (r UpdateRuleRequest) ApplyTo(rule *DiscountRule) error {
	if r.Name != nil {
		rule.Name = *r.Name
	}
	if r.Description != nil {
		rule.Description = r.Description
	}
	if r.DiscountType != nil {
		rule.DiscountType = DiscountType(*r.DiscountType)
	}
	if r.DiscountValue != nil {
		rule.DiscountValue = *r.DiscountValue
	}
	if r.PercentageValue != nil {
		rule.PercentageValue = r.PercentageValue
	}
	if r.BuyQuantity != nil {
		rule.BuyQuantity = r.BuyQuantity
	}
	if r.GetQuantity != nil {
		rule.GetQuantity = r.GetQuantity
	}
	if r.ApplicableTo != nil {
		rule.ApplicableTo = ApplicableTo(*r.ApplicableTo)
	}
	if r.CategoryIDs != nil {
		rule.CategoryIDs = r.CategoryIDs
	}
	if r.ProductIDs != nil {
		rule.ProductIDs = r.ProductIDs
	}
	if r.StartDate != nil {
		start, err := time.Parse(time.RFC3339, *r.StartDate)
		if err != nil {
			return err
		}
		rule.StartDate = start.UTC()
	}
	if r.EndDate != nil {
		end, err := time.Parse(time.RFC3339, *r.EndDate)
		if err != nil {
			return err
		}
		rule.EndDate = end.UTC()
	}
	if r.AllowStacking != nil {
		rule.AllowStacking = *r.AllowStacking
	}
	if r.Priority != nil {
		rule.Priority = *r.Priority
	}
	if r.MaxUsesPerCustomer != nil {
		rule.MaxUsesPerCustomer = r.MaxUsesPerCustomer
	}
	if r.MaxTotalUses != nil {
		rule.MaxTotalUses = r.MaxTotalUses
	}
	if r.MinPurchaseAmount != nil {
		rule.MinPurchaseAmount = *r.MinPurchaseAmount
	}
	rule.Normalize()
	return nil
}

// ListRulesFilter - filter for admin rule listing
type ListRulesFilter struct {
	Status string `form:"status"` // scheduled, active, expired, all
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Validate applies paging defaults and checks the status value.
func (f *ListRulesFilter) Validate() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Status == "" {
		f.Status = "all"
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.In("scheduled", "active", "expired", "all")),
	)
}

func (f *ListRulesFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// -------------------------------------------------------------------
// PRICING REQUESTS
// -------------------------------------------------------------------

// QuoteRequest - price a single catalog item for display
type QuoteRequest struct {
	ProductID  *uuid.UUID      `json:"product_id"`
	CategoryID *uuid.UUID      `json:"category_id"`
	BasePrice  decimal.Decimal `json:"base_price"`
}

func (r QuoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BasePrice, validation.By(nonNegativeDecimal("base price must be >= 0"))),
	)
}

// CartPricingRequest - price every line of a cart
type CartPricingRequest struct {
	Items []CartLineItem `json:"items"`
}

func (r CartPricingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items,
			validation.Required.Error("cart must contain at least one item"),
			validation.Length(1, 200).Error("cart may contain at most 200 items"),
		),
	)
}

// ConfirmPricingRequest - sent by the order flow right before an order is committed
type ConfirmPricingRequest struct {
	OrderID               uuid.UUID       `json:"order_id"`
	CustomerID            *uuid.UUID      `json:"customer_id"`
	Items                 []CartLineItem  `json:"items"`
	DisplayedTotalSavings decimal.Decimal `json:"displayed_total_savings"`
}

func (r ConfirmPricingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.By(requiredUUID("order id is required"))),
		validation.Field(&r.Items,
			validation.Required.Error("cart must contain at least one item"),
			validation.Length(1, 200).Error("cart may contain at most 200 items"),
		),
		validation.Field(&r.DisplayedTotalSavings,
			validation.By(nonNegativeDecimal("displayed total savings must be >= 0")),
		),
	)
}

// -------------------------------------------------------------------
// PUBLIC RESPONSES
// -------------------------------------------------------------------

// DiscountLine is an applied discount without internal identifiers.
type DiscountLine struct {
	Name         string          `json:"name"`
	DiscountType DiscountType    `json:"discount_type"`
	Savings      decimal.Decimal `json:"savings"`
	PriceBefore  decimal.Decimal `json:"price_before"`
	PriceAfter   decimal.Decimal `json:"price_after"`
}

// PricedItemResponse - one priced line for customer-facing responses
type PricedItemResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Savings         decimal.Decimal `json:"savings"`
	Discounts       []DiscountLine  `json:"discounts"`
}

// CartPricingResponse - customer-facing cart pricing
type CartPricingResponse struct {
	Items        []PricedItemResponse `json:"items"`
	TotalSavings decimal.Decimal      `json:"total_savings"`
	PricedAt     time.Time            `json:"priced_at"`
}

// QuoteResponse - customer-facing single product price
type QuoteResponse struct {
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Savings         decimal.Decimal `json:"savings"`
	Discounts       []DiscountLine  `json:"discounts"`
}

// ActiveDiscountInfo - public listing entry for the storefront banner
type ActiveDiscountInfo struct {
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	DiscountType    DiscountType     `json:"discount_type"`
	DiscountValue   decimal.Decimal  `json:"discount_value"`
	PercentageValue *decimal.Decimal `json:"percentage_value,omitempty"`
	BuyQuantity     *int             `json:"buy_quantity,omitempty"`
	GetQuantity     *int             `json:"get_quantity,omitempty"`
	ApplicableTo    ApplicableTo     `json:"applicable_to"`
	EndDate         time.Time        `json:"end_date"`
}

func ToDiscountLines(applied []AppliedDiscount) []DiscountLine {
	lines := make([]DiscountLine, 0, len(applied))
	for _, a := range applied {
		lines = append(lines, DiscountLine{
			Name:         a.RuleName,
			DiscountType: a.DiscountType,
			Savings:      a.Savings,
			PriceBefore:  a.PriceBefore,
			PriceAfter:   a.PriceAfter,
		})
	}
	return lines
}

func ToQuoteResponse(item *PricedLineItem) *QuoteResponse {
	return &QuoteResponse{
		OriginalPrice:   item.OriginalPrice,
		DiscountedPrice: item.DiscountedPrice,
		Savings:         item.Savings,
		Discounts:       ToDiscountLines(item.AppliedDiscounts),
	}
}

func ToCartPricingResponse(p *CartPricing) *CartPricingResponse {
	items := make([]PricedItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, PricedItemResponse{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			OriginalPrice:   item.OriginalPrice,
			DiscountedPrice: item.DiscountedPrice,
			Savings:         item.Savings,
			Discounts:       ToDiscountLines(item.AppliedDiscounts),
		})
	}
	return &CartPricingResponse{
		Items:        items,
		TotalSavings: p.TotalSavings,
		PricedAt:     p.PricedAt,
	}
}

func ToActiveDiscountInfo(rules []*DiscountRule) []ActiveDiscountInfo {
	out := make([]ActiveDiscountInfo, 0, len(rules))
	for _, r := range rules {
		out = append(out, ActiveDiscountInfo{
			Name:            r.Name,
			Description:     r.Description,
			DiscountType:    r.DiscountType,
			DiscountValue:   r.DiscountValue,
			PercentageValue: r.PercentageValue,
			BuyQuantity:     r.BuyQuantity,
			GetQuantity:     r.GetQuantity,
			ApplicableTo:    r.ApplicableTo,
			EndDate:         r.EndDate,
		})
	}
	return out
}
