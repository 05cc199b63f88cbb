package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/domains/discount/model"
)

func newTestDiscountService(store *fakeRuleStore, audits *fakeAuditRepo) *discountService {
	displayCache := NewActiveRulesCache(store, nil, time.Minute)
	svc := NewDiscountService(
		store,
		audits,
		newTestRevalidator(store),
		NewLifecycleManager(store, displayCache),
		displayCache,
	).(*discountService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func validCreateRequest() *model.CreateRuleRequest {
	return &model.CreateRuleRequest{
		Name:            "Summer sale",
		DiscountType:    "percentage",
		PercentageValue: decPtr("20"),
		ApplicableTo:    "all_products",
		StartDate:       "2026-06-01T00:00:00Z",
		EndDate:         "2026-09-01T00:00:00Z",
		AllowStacking:   true,
		Priority:        3,
	}
}

func TestCreateRule_DerivesStatusFromDates(t *testing.T) {
	store := newFakeRuleStore()
	svc := newTestDiscountService(store, &fakeAuditRepo{})

	rule, err := svc.CreateRule(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, model.RuleStatusActive, rule.Status)
	assert.True(t, rule.DiscountValue.Equal(dec("20")), "discount value mirrors percentage")
	assert.Equal(t, testNow, rule.CreatedAt)
	require.Len(t, store.inserted, 1)

	future := validCreateRequest()
	future.StartDate = "2026-07-01T00:00:00Z"
	rule, err = svc.CreateRule(context.Background(), future)
	require.NoError(t, err)
	assert.Equal(t, model.RuleStatusScheduled, rule.Status)
}

func TestCreateRule_ValidationNeverWrites(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.CreateRuleRequest)
		field  string
	}{
		{"percentage below range", func(r *model.CreateRuleRequest) { r.PercentageValue = decPtr("4") }, "percentage_value"},
		{"percentage above range", func(r *model.CreateRuleRequest) { r.PercentageValue = decPtr("91") }, "percentage_value"},
		{"percentage missing", func(r *model.CreateRuleRequest) { r.PercentageValue = nil }, "percentage_value"},
		{"end before start", func(r *model.CreateRuleRequest) { r.EndDate = "2026-05-01T00:00:00Z" }, "end_date"},
		{"end equals start", func(r *model.CreateRuleRequest) { r.EndDate = r.StartDate }, "end_date"},
		{"bad date format", func(r *model.CreateRuleRequest) { r.StartDate = "yesterday" }, "start_date"},
		{"unknown type", func(r *model.CreateRuleRequest) { r.DiscountType = "bogus" }, "discount_type"},
		{"unknown scope", func(r *model.CreateRuleRequest) { r.ApplicableTo = "some" }, "applicable_to"},
		{"categories without ids", func(r *model.CreateRuleRequest) { r.ApplicableTo = "specific_categories" }, "category_ids"},
		{"buy x get y without quantities", func(r *model.CreateRuleRequest) {
			r.DiscountType = "buy_x_get_y"
			r.PercentageValue = nil
		}, "buy_quantity"},
		{"buy x get y zero get", func(r *model.CreateRuleRequest) {
			r.DiscountType = "buy_x_get_y"
			r.PercentageValue = nil
			r.BuyQuantity = intPtr(2)
			r.GetQuantity = intPtr(0)
		}, "get_quantity"},
		{"max total uses zero", func(r *model.CreateRuleRequest) { r.MaxTotalUses = intPtr(0) }, "max_total_uses"},
		{"negative min purchase", func(r *model.CreateRuleRequest) { r.MinPurchaseAmount = dec("-1") }, "min_purchase_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeRuleStore()
			svc := newTestDiscountService(store, &fakeAuditRepo{})
			req := validCreateRequest()
			tt.mutate(req)

			rule, err := svc.CreateRule(context.Background(), req)
			assert.Nil(t, rule)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, store.inserted)
		})
	}
}

func TestCreateRule_BuyXGetY(t *testing.T) {
	store := newFakeRuleStore()
	svc := newTestDiscountService(store, &fakeAuditRepo{})
	req := validCreateRequest()
	req.DiscountType = "buy_x_get_y"
	req.PercentageValue = nil
	req.BuyQuantity = intPtr(2)
	req.GetQuantity = intPtr(1)

	rule, err := svc.CreateRule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.DiscountTypeBuyXGetY, rule.DiscountType)
}

func TestUpdateRule_RevalidatesMergedRule(t *testing.T) {
	existing := fixedRule("f10", "10", false, 0)
	existing.MaxTotalUses = intPtr(100)
	existing.CurrentTotalUses = 40
	store := newFakeRuleStore(existing)
	svc := newTestDiscountService(store, &fakeAuditRepo{})

	lowered := 30
	_, err := svc.UpdateRule(context.Background(), existing.ID, &model.UpdateRuleRequest{MaxTotalUses: &lowered})
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "max_total_uses")

	// switching to percentage without a percentage value is rejected
	pct := "percentage"
	_, err = svc.UpdateRule(context.Background(), existing.ID, &model.UpdateRuleRequest{DiscountType: &pct})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "percentage_value")

	assert.Empty(t, store.updated)
}

func TestUpdateRule_ReDerivesStatus(t *testing.T) {
	existing := fixedRule("f10", "10", false, 0)
	store := newFakeRuleStore(existing)
	svc := newTestDiscountService(store, &fakeAuditRepo{})

	end := "2026-06-01T00:00:00Z"
	updated, err := svc.UpdateRule(context.Background(), existing.ID, &model.UpdateRuleRequest{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, model.RuleStatusExpired, updated.Status)
	require.Len(t, store.updated, 1)
	assert.Equal(t, model.RuleStatusExpired, store.updated[0].Status)
}

func TestUpdateRule_EmptyChange(t *testing.T) {
	existing := fixedRule("f10", "10", false, 0)
	svc := newTestDiscountService(newFakeRuleStore(existing), &fakeAuditRepo{})

	_, err := svc.UpdateRule(context.Background(), existing.ID, &model.UpdateRuleRequest{})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestUpdateRule_NotFound(t *testing.T) {
	svc := newTestDiscountService(newFakeRuleStore(), &fakeAuditRepo{})
	name := "renamed"

	_, err := svc.UpdateRule(context.Background(), uuid.New(), &model.UpdateRuleRequest{Name: &name})
	assert.True(t, errors.Is(err, model.ErrRuleNotFound))
}

func TestDeleteRule_RefusedWhenReferenced(t *testing.T) {
	rule := fixedRule("used", "10", false, 0)
	store := newFakeRuleStore(rule)
	audits := &fakeAuditRepo{counts: map[uuid.UUID]int{rule.ID: 2}}
	svc := newTestDiscountService(store, audits)

	err := svc.DeleteRule(context.Background(), rule.ID)
	assert.True(t, errors.Is(err, model.ErrRuleReferenced))
	assert.Empty(t, store.deleted)
}

func TestDeleteRule(t *testing.T) {
	rule := fixedRule("unused", "10", false, 0)
	store := newFakeRuleStore(rule)
	svc := newTestDiscountService(store, &fakeAuditRepo{})

	require.NoError(t, svc.DeleteRule(context.Background(), rule.ID))
	assert.Equal(t, []uuid.UUID{rule.ID}, store.deleted)

	_, err := svc.GetRule(context.Background(), rule.ID)
	assert.True(t, errors.Is(err, model.ErrRuleNotFound))
}

func TestListRules_AppliesDefaults(t *testing.T) {
	expired := fixedRule("old", "1", false, 0)
	expired.Status = model.RuleStatusExpired
	store := newFakeRuleStore(fixedRule("live", "1", false, 0), expired)
	svc := newTestDiscountService(store, &fakeAuditRepo{})

	filter := &model.ListRulesFilter{}
	rules, total, err := svc.ListRules(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, rules, 2)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.Limit)

	_, _, err = svc.ListRules(context.Background(), &model.ListRulesFilter{Status: "bogus"})
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestReconcileStatuses_UsesServiceClock(t *testing.T) {
	ended := fixedRule("ended", "1", false, 0)
	ended.EndDate = testNow.Add(-time.Second)
	svc := newTestDiscountService(newFakeRuleStore(ended), &fakeAuditRepo{})

	result, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ExpiredCount)
}
