package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/repository"
	"pricing-service/internal/infrastructure/metrics"
	"pricing-service/pkg/logger"
)

// checkoutService re-prices a cart at order placement. Client-side totals are
// never trusted; the cart is priced again from the store with a fresh now.
type checkoutService struct {
	revalidator *CartRevalidator
	audit       repository.AuditRecorder
	publisher   AuditPublisher // optional
	tolerance   decimal.Decimal
	now         func() time.Time
}

func NewCheckoutService(
	revalidator *CartRevalidator,
	audit repository.AuditRecorder,
	publisher AuditPublisher,
	tolerance decimal.Decimal,
) CheckoutInterface {
	return &checkoutService{
		revalidator: revalidator,
		audit:       audit,
		publisher:   publisher,
		tolerance:   tolerance.Abs(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmPricing flow:
// 1. Revalidate every item against current rules (fails closed)
// 2. Reject with StaleDiscountError if savings moved beyond tolerance
// 3. Record the applied discount trail for the order, replacing any earlier one
// 4. Publish the trail to the broker, best effort
func (s *checkoutService) ConfirmPricing(ctx context.Context, req *model.ConfirmPricingRequest) (*model.CartPricing, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	ctx, span := tracer.Start(ctx, "discount.ConfirmPricing")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()))

	// Step 1
	pricing, err := s.revalidator.Revalidate(ctx, req.Items, s.now())
	if err != nil {
		spanFail(span, err)
		return nil, fmt.Errorf("confirm pricing: %w", err)
	}

	// Step 2
	if req.DisplayedTotalSavings.Sub(pricing.TotalSavings).Abs().GreaterThan(s.tolerance) {
		metrics.StaleRejections.Inc()
		logger.Warn("Stale discount rejected at checkout", map[string]interface{}{
			"order_id":  req.OrderID.String(),
			"displayed": req.DisplayedTotalSavings.String(),
			"current":   pricing.TotalSavings.String(),
		})
		return nil, &model.StaleDiscountError{
			Displayed: req.DisplayedTotalSavings,
			Current:   pricing.TotalSavings,
		}
	}

	// Step 3
	records := buildAuditRecords(req, pricing)
	if err := s.audit.Record(ctx, records); err != nil {
		spanFail(span, err)
		return nil, fmt.Errorf("record applied discounts: %w", err)
	}

	// Step 4
	if s.publisher != nil && len(records) > 0 {
		if err := s.publisher.PublishApplied(ctx, records); err != nil {
			metrics.AuditPublishFailures.Inc()
			logger.Error("Failed to publish applied discounts", err)
		}
	}

	span.SetAttributes(attribute.Int("audit.records", len(records)))
	return pricing, nil
}

func buildAuditRecords(req *model.ConfirmPricingRequest, pricing *model.CartPricing) []*model.DiscountAuditRecord {
	var records []*model.DiscountAuditRecord
	for line, item := range pricing.Items {
		for step, applied := range item.AppliedDiscounts {
			records = append(records, &model.DiscountAuditRecord{
				ID:              auditRecordID(req.OrderID, line, step),
				OrderID:         req.OrderID,
				CustomerID:      req.CustomerID,
				ProductID:       item.ProductID,
				LineIndex:       line,
				StepIndex:       step,
				AppliedDiscount: applied,
				RecordedAt:      pricing.PricedAt,
			})
		}
	}
	return records
}

// auditRecordID is stable for one order, line and step so a retried confirm
// rewrites the same rows and emits the same event IDs.
func auditRecordID(orderID uuid.UUID, line, step int) uuid.UUID {
	return uuid.NewSHA1(orderID, []byte(fmt.Sprintf("%d/%d", line, step)))
}
