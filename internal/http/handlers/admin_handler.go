// Admin HTTP handlers.
//
// This file exposes the JWT-protected back-office endpoints:
//   - PUT /admin/orders/{id}/status   (lifecycle transition)
//   - GET /admin/stats                (dashboard totals)
//
// Status updates go through the order service so the transition table is the
// single authority; the handler only translates sentinels into HTTP codes.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AI-Automated-Ecommerce/Backend/internal/repo"
)

//
// DTOs
//

// UpdateOrderStatusRequest is the JSON payload for a lifecycle transition.
type UpdateOrderStatusRequest struct {
	// Status is the target lifecycle state (e.g. "PAID", "SHIPPED").
	Status string `json:"status" binding:"required" example:"PAID"`
}

// OrderStatusResponse reports the order state after a transition.
type OrderStatusResponse struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status" example:"PAID"`
}

//
// Handlers
//

// UpdateOrderStatus godoc
// @ID          updateOrderStatus
// @Summary     Transition an order's lifecycle status
// @Description Applies a status transition. Only the review-to-paid edge
// @Description triggers a customer notification; the notification is
// @Description best-effort and never affects the response.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    int     true  "Order ID"
// @Param       body           body    handlers.UpdateOrderStatusRequest  true  "Target status"
//
// @Success     200  {object}  handlers.OrderStatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Order not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Transition not allowed"
// @Router      /admin/orders/{id}/status [put]
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, okID := orderIDParam(c)
	if !okID {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	o, err := h.orderSvc.UpdateStatus(c.Request.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		failOrder(c, err)
		return
	}

	ok(c, http.StatusOK, OrderStatusResponse{OrderID: o.ID, Status: string(o.Status)})
}

// DashboardStats godoc
// @ID          dashboardStats
// @Summary     Back-office dashboard totals
// @Description Returns order, revenue, catalog, and customer counts. Revenue
// @Description counts PAID, SHIPPED, and COMPLETED orders only.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
//
// @Success     200  {object}  repo.DashboardStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/stats [get]
func (h *Handlers) DashboardStats(c *gin.Context) {
	stats, err := repo.LoadDashboardStats(c.Request.Context(), h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "stats unavailable")
		return
	}
	ok(c, http.StatusOK, stats)
}
