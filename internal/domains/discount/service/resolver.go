package service

import (
	"sort"

	"pricing-service/internal/domains/discount/model"
)

// StackingResolver decides which applicable rules apply and in what order.
// It is pure and safe for concurrent use.
type StackingResolver struct{}

func NewStackingResolver() *StackingResolver {
	return &StackingResolver{}
}

// Resolve returns the rules to apply, in application order.
//
// If no candidate allows stacking, only the single highest discount applies.
// If at least one does, every candidate applies (non-stackable ones included),
// ordered by priority descending and then percentage before fixed amount
// before buy-x-get-y. Equal keys keep their input order.
func (r *StackingResolver) Resolve(candidates []*model.DiscountRule) []*model.DiscountRule {
	if len(candidates) == 0 {
		return []*model.DiscountRule{}
	}

	anyStackable := false
	for _, c := range candidates {
		if c.AllowStacking {
			anyStackable = true
			break
		}
	}

	if !anyStackable {
		return []*model.DiscountRule{selectHighestDiscount(candidates)}
	}

	ordered := make([]*model.DiscountRule, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return stacksBefore(ordered[i], ordered[j])
	})
	return ordered
}

// selectHighestDiscount keeps the first candidate unless a later one is strictly greater.
// Percentage points and fixed amounts are compared as raw numbers.
func selectHighestDiscount(candidates []*model.DiscountRule) *model.DiscountRule {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ComparisonValue().GreaterThan(best.ComparisonValue()) {
			best = c
		}
	}
	return best
}

func stacksBefore(a, b *model.DiscountRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.DiscountType.StackingRank() < b.DiscountType.StackingRank()
}
