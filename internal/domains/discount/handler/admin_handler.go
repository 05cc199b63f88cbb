package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pricing-service/internal/domains/discount/model"
	"pricing-service/internal/domains/discount/service"
	"pricing-service/internal/shared/response"
)

// AdminHandler serves rule administration (admin role only)
type AdminHandler struct {
	service service.ServiceInterface
}

func NewAdminHandler(service service.ServiceInterface) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// -------------------------------------------------------------------
// CREATE & UPDATE
// -------------------------------------------------------------------

// CreateRule creates a discount rule
// @Router       /v1/admin/discounts [post]
func (h *AdminHandler) CreateRule(c *gin.Context) {
	var req model.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, rule)
}

// UpdateRule applies a partial update; the merged rule is fully re-validated
// @Router       /v1/admin/discounts/:id [patch]
func (h *AdminHandler) UpdateRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req model.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rule)
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

// GetRule
// @Router       /v1/admin/discounts/:id [get]
func (h *AdminHandler) GetRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	rule, err := h.service.GetRule(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, rule)
}

// ListRules lists rules with status filter and paging
// @Router       /v1/admin/discounts [get]
func (h *AdminHandler) ListRules(c *gin.Context) {
	var filter model.ListRulesFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	rules, total, err := h.service.ListRules(c.Request.Context(), &filter)
	if err != nil {
		handleError(c, err)
		return
	}
	if rules == nil {
		rules = []*model.DiscountRule{}
	}

	response.SuccessWithMeta(c, http.StatusOK, rules, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// ListOrderDiscounts returns the applied discount trail of an order
// @Router       /v1/admin/orders/:id/discounts [get]
func (h *AdminHandler) ListOrderDiscounts(c *gin.Context) {
	orderID, ok := parseID(c)
	if !ok {
		return
	}

	records, err := h.service.ListOrderDiscounts(c.Request.Context(), orderID)
	if err != nil {
		handleError(c, err)
		return
	}
	if records == nil {
		records = []*model.DiscountAuditRecord{}
	}

	response.Success(c, http.StatusOK, records)
}

// -------------------------------------------------------------------
// DELETE & MAINTENANCE
// -------------------------------------------------------------------

// DeleteRule deletes a rule that was never applied to an order
// @Router       /v1/admin/discounts/:id [delete]
func (h *AdminHandler) DeleteRule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRule(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reconcile runs status reconciliation now instead of waiting for the schedule
// @Router       /v1/admin/discounts/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	result, err := h.service.ReconcileStatuses(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest,
			string(model.ErrCodeValidationFailed), "Invalid id", gin.H{"id": "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}
