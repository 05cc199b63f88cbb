package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	minPercentage = decimal.NewFromInt(5)
	maxPercentage = decimal.NewFromInt(90)
)

// Validate checks every invariant a stored rule must hold. It is run on
// create and on the merged rule during update, always before any write.
func (r DiscountRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(3, 200).Error("name must be 3-200 characters"),
		),
		validation.Field(&r.DiscountType,
			validation.Required.Error("discount type is required"),
			validation.In(DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeBuyXGetY).
				Error("discount type must be percentage, fixed_amount or buy_x_get_y"),
		),
		validation.Field(&r.DiscountValue,
			validation.By(nonNegativeDecimal("discount value must be >= 0")),
		),
		validation.Field(&r.PercentageValue,
			validation.When(r.DiscountType == DiscountTypePercentage,
				validation.Required.Error("percentage value is required for percentage discounts"),
				validation.By(percentageInRange),
			).Else(
				validation.Nil.Error("percentage value only applies to percentage discounts"),
			),
		),
		validation.Field(&r.BuyQuantity,
			validation.When(r.DiscountType == DiscountTypeBuyXGetY,
				validation.Required.Error("buy quantity is required for buy_x_get_y discounts"),
				validation.Min(1).Error("buy quantity must be > 0"),
			),
		),
		validation.Field(&r.GetQuantity,
			validation.When(r.DiscountType == DiscountTypeBuyXGetY,
				validation.Required.Error("get quantity is required for buy_x_get_y discounts"),
				validation.Min(1).Error("get quantity must be > 0"),
			),
		),
		validation.Field(&r.ApplicableTo,
			validation.Required.Error("applicable_to is required"),
			validation.In(AppliesToAllProducts, AppliesToSpecificCategories, AppliesToSpecificProducts).
				Error("applicable_to must be all_products, specific_categories or specific_products"),
		),
		validation.Field(&r.CategoryIDs,
			validation.When(r.ApplicableTo == AppliesToSpecificCategories,
				validation.Required.Error("at least one category is required"),
			),
		),
		validation.Field(&r.ProductIDs,
			validation.When(r.ApplicableTo == AppliesToSpecificProducts,
				validation.Required.Error("at least one product is required"),
			),
		),
		validation.Field(&r.StartDate,
			validation.Required.Error("start date is required"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end date is required"),
			validation.By(r.validateDateRange),
		),
		validation.Field(&r.MaxUsesPerCustomer,
			validation.By(positiveIfSet("max uses per customer must be >= 1")),
		),
		validation.Field(&r.MaxTotalUses,
			validation.By(positiveIfSet("max total uses must be >= 1")),
			validation.By(r.validateUsageCeiling),
		),
		validation.Field(&r.CurrentTotalUses,
			validation.Min(0).Error("current total uses must be >= 0"),
		),
		validation.Field(&r.MinPurchaseAmount,
			validation.By(nonNegativeDecimal("min purchase amount must be >= 0")),
		),
	)
}

func (r DiscountRule) validateDateRange(value interface{}) error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return nil
	}
	if !r.EndDate.After(r.StartDate) {
		return errors.New("end date must be after start date")
	}
	return nil
}

func (r DiscountRule) validateUsageCeiling(value interface{}) error {
	if r.MaxTotalUses != nil && *r.MaxTotalUses < r.CurrentTotalUses {
		return errors.New("max total uses cannot be below current total uses")
	}
	return nil
}

func percentageInRange(value interface{}) error {
	pct, _ := value.(*decimal.Decimal)
	if pct == nil {
		return nil
	}
	if pct.LessThan(minPercentage) || pct.GreaterThan(maxPercentage) {
		return errors.New("percentage value must be between 5 and 90")
	}
	return nil
}

func nonNegativeDecimal(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		v, ok := value.(decimal.Decimal)
		if ok && v.IsNegative() {
			return errors.New(msg)
		}
		return nil
	}
}

func positiveIfSet(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		v, _ := value.(*int)
		if v != nil && *v < 1 {
			return errors.New(msg)
		}
		return nil
	}
}

func requiredUUID(msg string) validation.RuleFunc {
	return func(value interface{}) error {
		if id, ok := value.(uuid.UUID); ok && id == uuid.Nil {
			return errors.New(msg)
		}
		return nil
	}
}
