package models

import (
	"math"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

// Normalize applies the paging defaults and bounds.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// Offset is the number of rows before the page. It saturates at math.MaxInt
// for page numbers past any real result set.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// OrderQuery filters the order list. Status "" or "all" disables the status
// filter; Date restricts to orders created on that UTC day.
type OrderQuery struct {
	ListQuery
	Status string
	Date   *time.Time
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"currentPage"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](items []T, total int, q ListQuery) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.PageSize > 0 {
		pages = (total + q.PageSize - 1) / q.PageSize
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: pages,
	}
}
