package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// MaxPageLimit caps the limit a client may request.
const MaxPageLimit = 200

type Pagination struct {
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	Offset   int   `json:"offset"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// GetPagination reads ?page and ?limit, falling back to the defaults for
// missing or non-positive values.
func GetPagination(c *fiber.Ctx, defaultPage, defaultLimit int) Pagination {
	page := positiveQuery(c, "page", defaultPage)
	limit := positiveQuery(c, "limit", defaultLimit)
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func positiveQuery(c *fiber.Ctx, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (p *Pagination) SetTotal(total int64) {
	p.Total = total
	p.LastPage = int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Bounds returns the slice bounds of the current page within n items.
func (p Pagination) Bounds(n int) (start, end int) {
	if p.Offset >= n {
		return n, n
	}
	end = p.Offset + p.Limit
	if end > n {
		end = n
	}
	return p.Offset, end
}

// Paginate cuts the current page out of items and fills in the totals.
// The returned page is a copy and never nil.
func Paginate[T any](items []T, p Pagination) ([]T, Pagination) {
	p.SetTotal(int64(len(items)))
	start, end := p.Bounds(len(items))
	return append([]T{}, items[start:end]...), p
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

func NewPaginatedResponse(data interface{}, pagination Pagination) PaginatedResponse {
	return PaginatedResponse{Data: data, Pagination: pagination}
}
