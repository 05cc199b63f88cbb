package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/domains/discount/model"
)

func TestEvaluate_ScopeMatching(t *testing.T) {
	productID := uuid.New()
	categoryID := uuid.New()

	all := percentageRule("all", "10", false, 0)

	byCategory := fixedRule("category", "5", false, 0)
	byCategory.ApplicableTo = model.AppliesToSpecificCategories
	byCategory.CategoryIDs = []uuid.UUID{uuid.New(), categoryID}

	byProduct := fixedRule("product", "3", false, 0)
	byProduct.ApplicableTo = model.AppliesToSpecificProducts
	byProduct.ProductIDs = []uuid.UUID{productID}

	otherProduct := fixedRule("other product", "3", false, 0)
	otherProduct.ApplicableTo = model.AppliesToSpecificProducts
	otherProduct.ProductIDs = []uuid.UUID{uuid.New()}

	filter := NewApplicabilityFilter(newFakeRuleStore(all, byCategory, byProduct, otherProduct))

	tests := []struct {
		name       string
		productID  *uuid.UUID
		categoryID *uuid.UUID
		want       []*model.DiscountRule
	}{
		{"product and category", &productID, &categoryID, []*model.DiscountRule{all, byCategory, byProduct}},
		{"product only", &productID, nil, []*model.DiscountRule{all, byProduct}},
		{"category only", nil, &categoryID, []*model.DiscountRule{all, byCategory}},
		{"neither", nil, nil, []*model.DiscountRule{all}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Evaluate(context.Background(), tt.productID, tt.categoryID, testNow)
			require.NoError(t, err)
			assert.Equal(t, ruleIDs(tt.want), ruleIDs(got))
		})
	}
}

func TestEvaluate_WindowIsHalfOpen(t *testing.T) {
	rule := percentageRule("window", "10", false, 0)
	filter := NewApplicabilityFilter(newFakeRuleStore(rule))
	ctx := context.Background()

	got, err := filter.Evaluate(ctx, nil, nil, rule.StartDate)
	require.NoError(t, err)
	assert.Len(t, got, 1, "start is inclusive")

	got, err = filter.Evaluate(ctx, nil, nil, rule.EndDate)
	require.NoError(t, err)
	assert.Empty(t, got, "end is exclusive")

	got, err = filter.Evaluate(ctx, nil, nil, rule.StartDate.Add(-1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_SkipsStaleActiveStatus(t *testing.T) {
	// persisted as active but already past its end date; reconcile has not run yet
	rule := percentageRule("lagging", "10", false, 0)
	rule.EndDate = testNow.Add(-1)
	filter := NewApplicabilityFilter(newFakeRuleStore(rule))

	got, err := filter.Evaluate(context.Background(), nil, nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_IgnoresNonActiveStatus(t *testing.T) {
	scheduled := percentageRule("scheduled", "10", false, 0)
	scheduled.Status = model.RuleStatusScheduled
	filter := NewApplicabilityFilter(newFakeRuleStore(scheduled))

	got, err := filter.Evaluate(context.Background(), nil, nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_EmptyIsNotError(t *testing.T) {
	filter := NewApplicabilityFilter(newFakeRuleStore())

	got, err := filter.Evaluate(context.Background(), nil, nil, testNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluate_StoreErrorPropagates(t *testing.T) {
	store := newFakeRuleStore(percentageRule("p", "10", false, 0))
	store.err = fmt.Errorf("query: %w", model.ErrStoreUnavailable)
	filter := NewApplicabilityFilter(store)

	got, err := filter.Evaluate(context.Background(), nil, nil, testNow)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
}

func TestEvaluate_QueriesStoreEveryCall(t *testing.T) {
	store := newFakeRuleStore(percentageRule("p", "10", false, 0))
	filter := NewApplicabilityFilter(store)

	for i := 0; i < 3; i++ {
		_, err := filter.Evaluate(context.Background(), nil, nil, testNow)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.activeCalls)
}
