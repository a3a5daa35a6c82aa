// Package paging holds page-number pagination helpers shared by list endpoints.
package paging

import (
	"net/url"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Params is a normalized 1-based page request.
type Params struct {
	Number int
	Size   int
}

// Page is the list response shape.
type Page[T any] struct {
	TotalCount int `json:"totalCount"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Data       []T `json:"data"`
}

// FromQuery reads pageNumber and pageSize, falling back to defaults on absent or bad values.
func FromQuery(q url.Values) Params {
	return Normalize(atoi(q.Get("pageNumber")), atoi(q.Get("pageSize")))
}

// Normalize clamps number to >= 1 and size to [1, MaxPageSize].
func Normalize(number, size int) Params {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Params{Number: number, Size: size}
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages returns ceil(total/size).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// NewPage assembles a Page from one page of rows and the unpaged total.
func NewPage[T any](p Params, total int, rows []T) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	return Page[T]{
		TotalCount: total,
		PageNumber: p.Number,
		PageSize:   p.Size,
		TotalPages: TotalPages(total, p.Size),
		Data:       rows,
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
