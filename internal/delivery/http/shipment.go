package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
)

type shipmentStatusInput struct {
	Status models.OrderStatus `json:"status"`
}

// ListShipments
// @Summary ListShipments
// @Description Lists shipped and delivered orders, most recently updated first
// @ID list-shipments
// @Tags shipments
// @Produce json
// @Param search query string false "matches order id, tracking code, customer name, phones and addresses"
// @Param page query int false "page number" minimum(1)
// @Param pageSize query int false "page size" minimum(1) maximum(100)
// @Success 200 {object} shipmentsResponse
// @Failure 400 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/shipments [get]
func (h *Handler) ListShipments(c *gin.Context) {
	q, bad := listQuery(c)
	if badQuery(c, bad) {
		return
	}
	page, err := h.svc.ListShipments(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shipmentsResponse{Shipments: page.Items, pageInfo: newPageInfo(page)})
}

// GetShipment
// @Summary GetShipment
// @ID get-shipment
// @Tags shipments
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} models.OrderView
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/shipments/{id} [get]
func (h *Handler) GetShipment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.GetShipment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// UpdateShipmentStatus
// @Summary UpdateShipmentStatus
// @Description Moves an order to shipped or delivered
// @ID update-shipment-status
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Param input body shipmentStatusInput true "shipped or delivered"
// @Success 200 {object} models.Order
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/shipments/{id}/status [put]
func (h *Handler) UpdateShipmentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in shipmentStatusInput
	if !bindJSON(c, &in) {
		return
	}
	st, _ := models.ParseOrderStatus(string(in.Status))
	o, err := h.svc.UpdateShipmentStatus(c.Request.Context(), id, st)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
