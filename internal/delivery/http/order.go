package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
)

// ListOrders
// @Summary ListOrders
// @Description Lists orders, newest first. status=all disables the status filter; date selects one UTC day
// @ID list-orders
// @Tags orders
// @Produce json
// @Param search query string false "matches order id, tracking code, customer name and item names"
// @Param status query string false "all, pending, processing, shipped, delivered or cancelled"
// @Param date query string false "creation day, YYYY-MM-DD"
// @Param page query int false "page number" minimum(1)
// @Param pageSize query int false "page size" minimum(1) maximum(100)
// @Success 200 {object} ordersResponse
// @Failure 400 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	q, bad := orderQuery(c)
	if badQuery(c, bad) {
		return
	}
	page, err := h.svc.ListOrders(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersResponse{Orders: page.Items, pageInfo: newPageInfo(page)})
}

// CreateOrder
// @Summary CreateOrder
// @Description Creates an order for an existing customer. Totals are derived from items and shipping cost
// @ID create-order
// @Tags orders
// @Accept json
// @Produce json
// @Param input body models.CreateOrderInput true "order"
// @Success 201 {object} models.Order
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var in models.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	in.Status, _ = models.ParseOrderStatus(string(in.Status))
	o, err := h.svc.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// GetOrder
// @Summary GetOrder
// @ID get-order
// @Tags orders
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} models.OrderView
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// UpdateOrder
// @Summary UpdateOrder
// @Description Partially updates items, shipping cost, status, tracking code or rating and recomputes totals
// @ID update-order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param input body models.UpdateOrderInput true "changed fields"
// @Success 200 {object} models.Order
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders/{id} [put]
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.UpdateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	if in.Status != nil {
		st, _ := models.ParseOrderStatus(string(*in.Status))
		in.Status = &st
	}
	o, err := h.svc.UpdateOrder(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DeleteOrder
// @Summary DeleteOrder
// @ID delete-order
// @Tags orders
// @Param id path string true "order id"
// @Success 204
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders/{id} [delete]
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateOrderStatus
// @Summary UpdateOrderStatus
// @Description Sets the order status. Leaving pending attaches a tracking code if the order has none
// @ID update-order-status
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param input body models.StatusInput true "new status"
// @Success 200 {object} models.Order
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders/{id}/status [put]
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.StatusInput
	if !bindJSON(c, &in) {
		return
	}
	st, _ := models.ParseOrderStatus(string(in.Status))
	o, err := h.svc.UpdateOrderStatus(c.Request.Context(), id, st, in.TrackingCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// AddOrderComment
// @Summary AddOrderComment
// @ID add-order-comment
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param input body models.CommentInput true "comment"
// @Success 201 {object} models.Order
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/orders/{id}/comments [post]
func (h *Handler) AddOrderComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.AddOrderComment(c.Request.Context(), id, in.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}
