package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/domains/discount/model"
)

func newTestCheckout(store *fakeRuleStore, audit *fakeAuditRepo, pub AuditPublisher, tolerance string) *checkoutService {
	svc := NewCheckoutService(newTestRevalidator(store), audit, pub, dec(tolerance)).(*checkoutService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func confirmRequest(displayed string, items ...model.CartLineItem) *model.ConfirmPricingRequest {
	customer := uuid.New()
	return &model.ConfirmPricingRequest{
		OrderID:               uuid.New(),
		CustomerID:            &customer,
		Items:                 items,
		DisplayedTotalSavings: dec(displayed),
	}
}

func TestConfirmPricing_RecordsAuditTrail(t *testing.T) {
	store := newFakeRuleStore(
		percentageRule("p20", "20", true, 2),
		fixedRule("f15", "15", true, 1),
	)
	audit := &fakeAuditRepo{}
	pub := &fakePublisher{}
	svc := newTestCheckout(store, audit, pub, "0")

	productID := uuid.New()
	req := confirmRequest("35", model.CartLineItem{ProductID: productID, UnitPrice: dec("100"), Quantity: 1})

	pricing, err := svc.ConfirmPricing(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, pricing.TotalSavings.Equal(dec("35")))

	require.Len(t, audit.records, 2)
	first := audit.records[0]
	assert.Equal(t, req.OrderID, first.OrderID)
	assert.Equal(t, req.CustomerID, first.CustomerID)
	assert.Equal(t, productID, first.ProductID)
	assert.Equal(t, 0, first.StepIndex)
	assert.Equal(t, "p20", first.RuleName)
	assert.True(t, first.Savings.Equal(dec("20")))
	assert.NotEqual(t, uuid.Nil, first.ID)

	assert.Equal(t, 1, audit.records[1].StepIndex)
	assert.True(t, audit.records[1].PriceAfter.Equal(dec("65")))

	assert.Len(t, pub.published, 2)
}

func TestConfirmPricing_RetryKeepsOneTrail(t *testing.T) {
	store := newFakeRuleStore(
		percentageRule("p20", "20", true, 2),
		fixedRule("f15", "15", true, 1),
	)
	audit := &fakeAuditRepo{}
	pub := &fakePublisher{}
	svc := newTestCheckout(store, audit, pub, "0")

	req := confirmRequest("35", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("100"), Quantity: 1})

	_, err := svc.ConfirmPricing(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.ConfirmPricing(context.Background(), req)
	require.NoError(t, err)

	trail, err := audit.ListByOrder(context.Background(), req.OrderID)
	require.NoError(t, err)
	require.Len(t, trail, 2)

	saved := decimal.Zero
	for _, rec := range trail {
		saved = saved.Add(rec.Savings)
	}
	assert.True(t, saved.Equal(dec("35")), "savings counted once, got %s", saved)

	// both attempts emit the same record IDs so consumers can dedupe
	require.Len(t, pub.published, 4)
	assert.Equal(t, pub.published[0].ID, pub.published[2].ID)
	assert.Equal(t, pub.published[1].ID, pub.published[3].ID)
	assert.NotEqual(t, pub.published[0].ID, pub.published[1].ID)
}

func TestConfirmPricing_StaleDiscount(t *testing.T) {
	rule := percentageRule("flash", "50", false, 0)
	store := newFakeRuleStore(rule)
	audit := &fakeAuditRepo{}
	svc := newTestCheckout(store, audit, nil, "0")

	// the customer saw 50% off, the rule has since been expired
	rule.Status = model.RuleStatusExpired
	req := confirmRequest("10", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("20"), Quantity: 1})

	pricing, err := svc.ConfirmPricing(context.Background(), req)
	assert.Nil(t, pricing)

	var stale *model.StaleDiscountError
	require.True(t, errors.As(err, &stale))
	assert.True(t, stale.Displayed.Equal(dec("10")))
	assert.True(t, stale.Current.IsZero())
	assert.Empty(t, audit.records, "nothing recorded for a rejected checkout")
}

func TestConfirmPricing_WithinTolerance(t *testing.T) {
	store := newFakeRuleStore(fixedRule("f5", "5", false, 0))
	svc := newTestCheckout(store, &fakeAuditRepo{}, nil, "0.01")

	req := confirmRequest("4.99", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("20"), Quantity: 1})

	_, err := svc.ConfirmPricing(context.Background(), req)
	assert.NoError(t, err)
}

func TestConfirmPricing_StoreErrorFailsClosed(t *testing.T) {
	store := newFakeRuleStore()
	store.err = model.ErrStoreUnavailable
	audit := &fakeAuditRepo{}
	svc := newTestCheckout(store, audit, nil, "0")

	req := confirmRequest("0", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("20"), Quantity: 1})

	_, err := svc.ConfirmPricing(context.Background(), req)
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
	assert.Empty(t, audit.records)
}

func TestConfirmPricing_AuditFailureFailsCheckout(t *testing.T) {
	store := newFakeRuleStore(fixedRule("f5", "5", false, 0))
	audit := &fakeAuditRepo{err: model.ErrStoreUnavailable}
	svc := newTestCheckout(store, audit, nil, "0")

	req := confirmRequest("5", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("20"), Quantity: 1})

	_, err := svc.ConfirmPricing(context.Background(), req)
	assert.True(t, errors.Is(err, model.ErrStoreUnavailable))
}

func TestConfirmPricing_PublishFailureIsNotFatal(t *testing.T) {
	store := newFakeRuleStore(fixedRule("f5", "5", false, 0))
	audit := &fakeAuditRepo{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestCheckout(store, audit, pub, "0")

	req := confirmRequest("5", model.CartLineItem{ProductID: uuid.New(), UnitPrice: dec("20"), Quantity: 1})

	pricing, err := svc.ConfirmPricing(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, pricing.TotalSavings.Equal(decimal.NewFromInt(5)))
	assert.Len(t, audit.records, 1)
}

func TestConfirmPricing_InvalidRequest(t *testing.T) {
	svc := newTestCheckout(newFakeRuleStore(), &fakeAuditRepo{}, nil, "0")

	_, err := svc.ConfirmPricing(context.Background(), &model.ConfirmPricingRequest{})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "order_id")
	assert.Contains(t, verr.Fields, "items")
}
