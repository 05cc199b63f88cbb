package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/service"
	"pricing-service/internal/shared/response"
)

// PublicHandler serves customer-facing pricing. Responses never carry rule
// identifiers or store error detail.
type PublicHandler struct {
	service  service.ServiceInterface
	checkout service.CheckoutInterface
}

func NewPublicHandler(service service.ServiceInterface, checkout service.CheckoutInterface) *PublicHandler {
	return &PublicHandler{
		service:  service,
		checkout: checkout,
	}
}

// ListActiveDiscounts lists running promotions for storefront display
// @Router       /v1/discounts/active [get]
func (h *PublicHandler) ListActiveDiscounts(c *gin.Context) {
	rules, err := h.service.GetActiveDiscountRules(c.Request.Context(), time.Now().UTC())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ToActiveDiscountInfo(rules))
}

// QuoteProduct prices one catalog item for a product page
// @Router       /v1/pricing/quote [post]
func (h *PublicHandler) QuoteProduct(c *gin.Context) {
	var req model.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		handleError(c, model.NewValidationError(err))
		return
	}

	item, err := h.service.QuoteProduct(c.Request.Context(), req.ProductID, req.CategoryID, req.BasePrice)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ToQuoteResponse(item))
}

// PriceCart prices a cart for preview. Checkout re-prices independently.
// @Router       /v1/pricing/cart [post]
func (h *PublicHandler) PriceCart(c *gin.Context) {
	var req model.CartPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		handleError(c, model.NewValidationError(err))
		return
	}

	pricing, err := h.service.PriceCart(c.Request.Context(), req.Items)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ToCartPricingResponse(pricing))
}

// ConfirmPricing is called by the order flow right before it commits an order.
// 409 means the customer must confirm the new price.
// @Router       /v1/pricing/confirm [post]
func (h *PublicHandler) ConfirmPricing(c *gin.Context) {
	var req model.ConfirmPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pricing, err := h.checkout.ConfirmPricing(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ToCartPricingResponse(pricing))
}
