package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPagination(t *testing.T) {
	var got Pagination
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetPagination(c, 1, 20)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/?page=3&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 3, Limit: 5, Offset: 10}, got)

	_, err = app.Test(httptest.NewRequest("GET", "/?page=-1&limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, got)

	_, err = app.Test(httptest.NewRequest("GET", "/?limit=5000", nil))
	require.NoError(t, err)
	assert.Equal(t, MaxPageLimit, got.Limit)
}

func TestPaginate(t *testing.T) {
	ids := []string{"a", "b", "c"}
	page, p := Paginate(ids, Pagination{Page: 2, Limit: 2, Offset: 2})
	assert.Equal(t, []string{"c"}, page)
	assert.EqualValues(t, 3, p.Total)
	assert.Equal(t, 2, p.LastPage)

	page, _ = Paginate(ids, Pagination{Page: 5, Limit: 2, Offset: 8})
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestBounds(t *testing.T) {
	p := Pagination{Page: 2, Limit: 5, Offset: 5}
	p.SetTotal(12)
	assert.Equal(t, 3, p.LastPage)

	start, end := p.Bounds(12)
	assert.Equal(t, []int{5, 10}, []int{start, end})

	start, end = Pagination{Page: 3, Limit: 5, Offset: 10}.Bounds(12)
	assert.Equal(t, []int{10, 12}, []int{start, end})

	start, end = Pagination{Page: 9, Limit: 5, Offset: 40}.Bounds(12)
	assert.Equal(t, start, end)
}
