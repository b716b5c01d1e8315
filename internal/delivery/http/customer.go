package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
)

// ListCustomers
// @Summary ListCustomers
// @Description Lists customers, newest first. search matches name, phones and address text
// @ID list-customers
// @Tags customers
// @Produce json
// @Param search query string false "search token"
// @Param page query int false "page number" minimum(1)
// @Param pageSize query int false "page size" minimum(1) maximum(100)
// @Success 200 {object} customersResponse
// @Failure 400 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers [get]
func (h *Handler) ListCustomers(c *gin.Context) {
	q, bad := listQuery(c)
	if badQuery(c, bad) {
		return
	}
	page, err := h.svc.ListCustomers(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customersResponse{Customers: page.Items, pageInfo: newPageInfo(page)})
}

// CreateCustomer
// @Summary CreateCustomer
// @Description Creates a customer with at least one address
// @ID create-customer
// @Tags customers
// @Accept json
// @Produce json
// @Param input body models.CustomerInput true "customer"
// @Success 201 {object} models.Customer
// @Failure 400,409 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	var in models.CustomerInput
	if !bindJSON(c, &in) {
		return
	}
	cust, err := h.svc.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// GetCustomer
// @Summary GetCustomer
// @ID get-customer
// @Tags customers
// @Produce json
// @Param id path string true "customer id"
// @Success 200 {object} models.Customer
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id} [get]
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cust, err := h.svc.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// UpdateCustomer
// @Summary UpdateCustomer
// @Description Partially updates a customer. Rating and order references are not editable
// @ID update-customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "customer id"
// @Param input body models.CustomerUpdate true "changed fields"
// @Success 200 {object} models.Customer
// @Failure 400,404,409 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id} [put]
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.CustomerUpdate
	if !bindJSON(c, &in) {
		return
	}
	cust, err := h.svc.UpdateCustomer(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// DeleteCustomer
// @Summary DeleteCustomer
// @ID delete-customer
// @Tags customers
// @Param id path string true "customer id"
// @Success 204
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id} [delete]
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCustomerOrders
// @Summary GetCustomerOrders
// @Description Orders of a customer in creation order
// @ID get-customer-orders
// @Tags customers
// @Produce json
// @Param id path string true "customer id"
// @Success 200 {object} customerOrdersResponse
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id}/orders [get]
func (h *Handler) GetCustomerOrders(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	orders, err := h.svc.CustomerOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, customerOrdersResponse{Orders: orders})
}

// AddAddress
// @Summary AddAddress
// @ID add-address
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "customer id"
// @Param input body models.AddressInput true "address"
// @Success 201 {object} models.Customer
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id}/addresses [post]
func (h *Handler) AddAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.AddressInput
	if !bindJSON(c, &in) {
		return
	}
	cust, err := h.svc.AddAddress(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// RemoveAddress
// @Summary RemoveAddress
// @Description Removes an address; the last remaining address cannot be removed
// @ID remove-address
// @Tags customers
// @Produce json
// @Param id path string true "customer id"
// @Param addressId path string true "address id"
// @Success 200 {object} models.Customer
// @Failure 400,404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id}/addresses/{addressId} [delete]
func (h *Handler) RemoveAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	addressID, ok := pathID(c, "addressId")
	if !ok {
		return
	}
	cust, err := h.svc.RemoveAddress(c.Request.Context(), id, addressID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

// SetDefaultAddress
// @Summary SetDefaultAddress
// @ID set-default-address
// @Tags customers
// @Produce json
// @Param id path string true "customer id"
// @Param addressId path string true "address id"
// @Success 200 {object} models.Customer
// @Failure 404 {object} errorResponse
// @Failure 500,503 {object} errorResponse
// @Router /api/customers/{id}/addresses/{addressId}/default [put]
func (h *Handler) SetDefaultAddress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	addressID, ok := pathID(c, "addressId")
	if !ok {
		return
	}
	cust, err := h.svc.SetDefaultAddress(c.Request.Context(), id, addressID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}
