package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/shared/response"
	"pricing-service/pkg/logger"
)

const pricingUnavailableMessage = "Pricing is temporarily unavailable, please try again later"

// handleError maps domain errors to HTTP responses. Internal error text is
// logged, never written to the client.
func handleError(c *gin.Context, err error) {
	var (
		verr  *model.ValidationError
		stale *model.StaleDiscountError
	)

	switch {
	case errors.As(err, &verr):
		response.ErrorWithDetails(c, http.StatusBadRequest,
			string(model.ErrCodeValidationFailed), "Invalid request data", verr.Fields)

	case errors.As(err, &stale):
		response.ErrorWithDetails(c, http.StatusConflict,
			string(model.ErrCodeStaleDiscount), "Discounts changed since the price was shown, please confirm the new price", stale)

	case errors.Is(err, model.ErrRuleNotFound):
		response.ErrorResponse(c, http.StatusNotFound,
			string(model.ErrCodeRuleNotFound), "Discount rule not found")

	case errors.Is(err, model.ErrRuleReferenced):
		response.ErrorResponse(c, http.StatusConflict,
			string(model.ErrCodeRuleReferenced), "Discount rule has been applied to orders and cannot be deleted")

	case errors.Is(err, model.ErrStoreUnavailable):
		logger.Error("Discount store unavailable", err)
		response.ServiceUnavailable(c, string(model.ErrCodeUnavailable), pricingUnavailableMessage)

	default:
		logger.Error("Unhandled discount error", err)
		response.ErrorResponse(c, http.StatusInternalServerError,
			string(model.ErrCodeInternalError), "Internal server error")
	}
}

func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest,
		string(model.ErrCodeValidationFailed), "Invalid request body", gin.H{"info": err.Error()})
}
