package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxResultWindow matches elasticsearch's default index.max_result_window.
	MaxResultWindow = 10000
)

func normalizeSize(size int) int {
	if size <= 0 || size > MaxPageSize {
		return DefaultPageSize
	}
	return size
}

// MaxPage is the last page whose results fit in MaxResultWindow.
func MaxPage(size int) int {
	size = normalizeSize(size)
	return MaxResultWindow / size
}

// Calculate turns a 1-based page and a size into an offset and limit.
// Pages past MaxPage are clamped so the offset never overflows.
func Calculate(page, size int) (from, limit int) {
	size = normalizeSize(size)
	if page < 1 {
		page = 1
	}
	if last := MaxPage(size); page > last {
		page = last
	}
	from = (page - 1) * size
	return from, size
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewMeta(page, size int, total int64) Meta {
	if page < 1 {
		page = 1
	}
	var pages int64
	if size > 0 {
		pages = (total + int64(size) - 1) / int64(size)
	}
	return Meta{Page: page, Size: size, Total: total, TotalPages: pages}
}
