package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/infrastructure/metrics"
)

// CartRevalidator prices items against the rules in force right now.
// It never reads cached pricing; every item goes back to the store.
type CartRevalidator struct {
	filter     *ApplicabilityFilter
	resolver   *StackingResolver
	calculator *PriceCalculator
}

func NewCartRevalidator(filter *ApplicabilityFilter, resolver *StackingResolver, calculator *PriceCalculator) *CartRevalidator {
	return &CartRevalidator{
		filter:     filter,
		resolver:   resolver,
		calculator: calculator,
	}
}

// Revalidate prices every item in order. The first store failure aborts the
// whole cart; no partial result is returned.
func (v *CartRevalidator) Revalidate(ctx context.Context, items []model.CartLineItem, now time.Time) (*model.CartPricing, error) {
	ctx, span := tracer.Start(ctx, "discount.Revalidate")
	defer span.End()
	span.SetAttributes(attribute.Int("cart.items", len(items)))

	priced := make([]model.PricedLineItem, 0, len(items))
	total := decimal.Zero

	for i, item := range items {
		line, err := v.priceItem(ctx, item, now)
		if err != nil {
			metrics.Revalidations.WithLabelValues(revalidationOutcome(err)).Inc()
			spanFail(span, err)
			return nil, fmt.Errorf("revalidate item %d: %w", i, err)
		}
		priced = append(priced, *line)
		total = total.Add(line.Savings)
	}

	metrics.Revalidations.WithLabelValues("ok").Inc()
	return &model.CartPricing{
		Items:        priced,
		TotalSavings: total,
		PricedAt:     now,
	}, nil
}

func revalidationOutcome(err error) string {
	switch {
	case errors.Is(err, model.ErrStoreUnavailable):
		return "store_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// Quote prices one catalog item for display.
func (v *CartRevalidator) Quote(
	ctx context.Context,
	productID *uuid.UUID,
	categoryID *uuid.UUID,
	basePrice decimal.Decimal,
	now time.Time,
) (*model.PricedLineItem, error) {
	item := model.CartLineItem{
		CategoryID: categoryID,
		UnitPrice:  basePrice,
		Quantity:   1,
	}
	if productID != nil {
		item.ProductID = *productID
	}
	return v.price(ctx, item, productID, now)
}

func (v *CartRevalidator) priceItem(ctx context.Context, item model.CartLineItem, now time.Time) (*model.PricedLineItem, error) {
	productID := item.ProductID
	return v.price(ctx, item, &productID, now)
}

func (v *CartRevalidator) price(
	ctx context.Context,
	item model.CartLineItem,
	productID *uuid.UUID,
	now time.Time,
) (*model.PricedLineItem, error) {
	candidates, err := v.filter.Evaluate(ctx, productID, item.CategoryID, now)
	if err != nil {
		return nil, err
	}

	ordered := v.resolver.Resolve(candidates)
	result := v.calculator.Apply(item.UnitPrice, ordered)

	return &model.PricedLineItem{
		CartLineItem:     item,
		OriginalPrice:    item.UnitPrice,
		DiscountedPrice:  result.FinalPrice,
		AppliedDiscounts: result.AppliedDiscounts,
		Savings:          result.TotalSavings,
	}, nil
}
