package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ApiResponse is the envelope every endpoint answers with.
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// PaginatedResponse is the payload of list endpoints.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// NewPaginatedResponse wraps one page of rows.
func NewPaginatedResponse[T any](rows []T, total int64, page PageRequest) PaginatedResponse[T] {
	page = page.Normalize()
	if rows == nil {
		rows = []T{}
	}
	totalPages := int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
	return PaginatedResponse[T]{
		Data:       rows,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: totalPages,
	}
}
