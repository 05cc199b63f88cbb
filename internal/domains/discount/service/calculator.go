package service

import (
	"pricing-service/internal/domains/discount/model"

	"github.com/shopspring/decimal"
)

// PriceCalculator folds an ordered rule list over a base price
type PriceCalculator struct{}

// NewPriceCalculator creates a calculator
func NewPriceCalculator() *PriceCalculator {
	return &PriceCalculator{}
}

// Apply applies rules in the given order, each one to the running price.
//
// Per step:
//   - Percentage: savings = price × pct / 100
//   - FixedAmount: savings = min(value, price)
//   - BuyXGetY: no per-unit effect, recorded with zero savings
//
// The running price never drops below zero. No rounding happens inside the
// fold, so TotalSavings always equals base - final exactly.
func (c *PriceCalculator) Apply(basePrice decimal.Decimal, rules []*model.DiscountRule) model.PriceResult {
	price := basePrice
	applied := make([]model.AppliedDiscount, 0, len(rules))
	total := decimal.Zero

	for _, rule := range rules {
		newPrice := price.Sub(c.stepSavings(rule, price))
		if newPrice.IsNegative() {
			newPrice = decimal.Zero
		}
		savings := price.Sub(newPrice)

		applied = append(applied, model.AppliedDiscount{
			RuleID:        rule.ID,
			RuleName:      rule.Name,
			DiscountType:  rule.DiscountType,
			DiscountValue: rule.DiscountValue,
			Savings:       savings,
			PriceBefore:   price,
			PriceAfter:    newPrice,
		})

		total = total.Add(savings)
		price = newPrice
	}

	return model.PriceResult{
		FinalPrice:       price,
		AppliedDiscounts: applied,
		TotalSavings:     total,
	}
}

func (c *PriceCalculator) stepSavings(rule *model.DiscountRule, price decimal.Decimal) decimal.Decimal {
	switch rule.DiscountType {
	case model.DiscountTypePercentage:
		pct := rule.DiscountValue
		if rule.PercentageValue != nil {
			pct = *rule.PercentageValue
		}
		// 100 × 20% = 20
		return price.Mul(pct).Shift(-2)

	case model.DiscountTypeFixedAmount:
		// Cannot take more than what is left
		if rule.DiscountValue.GreaterThan(price) {
			return price
		}
		return rule.DiscountValue

	default:
		// BuyXGetY and unknown types leave the unit price alone
		return decimal.Zero
	}
}
