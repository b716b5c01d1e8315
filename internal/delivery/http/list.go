package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
	"orderdesk/internal/service"
)

type pageInfo struct {
	Total      int `json:"total"`
	Page       int `json:"currentPage"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func newPageInfo[T any](p models.Page[T]) pageInfo {
	return pageInfo{Total: p.Total, Page: p.Page, PageSize: p.PageSize, TotalPages: p.TotalPages}
}

type customersResponse struct {
	Customers []models.Customer `json:"customers"`
	pageInfo
}

type ordersResponse struct {
	Orders []models.OrderView `json:"orders"`
	pageInfo
}

type shipmentsResponse struct {
	Shipments []models.OrderView `json:"shipments"`
	pageInfo
}

type customerOrdersResponse struct {
	Orders []models.Order `json:"orders"`
}

func positiveInt(c *gin.Context, key string, fields *[]service.FieldError) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		*fields = append(*fields, service.FieldError{Field: key, Reason: "must be a positive integer"})
		return 0
	}
	return n
}

// listQuery reads search, page and pageSize. limit is accepted as an alias of
// pageSize.
func listQuery(c *gin.Context) (models.ListQuery, []service.FieldError) {
	var fields []service.FieldError
	q := models.ListQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Page:   positiveInt(c, "page", &fields),
	}
	key := "pageSize"
	if c.Query(key) == "" && c.Query("limit") != "" {
		key = "limit"
	}
	q.PageSize = positiveInt(c, key, &fields)
	return q, fields
}

func orderQuery(c *gin.Context) (models.OrderQuery, []service.FieldError) {
	lq, fields := listQuery(c)
	q := models.OrderQuery{ListQuery: lq, Status: strings.TrimSpace(c.Query("status"))}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "date", Reason: "must be a date in YYYY-MM-DD format"})
		} else {
			q.Date = &d
		}
	}
	return q, fields
}

func badQuery(c *gin.Context, fields []service.FieldError) bool {
	if len(fields) == 0 {
		return false
	}
	respondError(c, &service.ValidationError{Fields: fields})
	return true
}
