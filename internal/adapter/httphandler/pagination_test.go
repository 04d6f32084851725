package httphandler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProductQuery(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q := parseProductQuery(url.Values{})
		assert.Empty(t, q.Category)
		assert.Equal(t, defaultLimit, q.Limit)
		assert.Zero(t, q.Skip)
		assert.Empty(t, q.SortField)
		assert.False(t, q.SortDesc)
	})

	t.Run("AllParams", func(t *testing.T) {
		q := parseProductQuery(url.Values{
			"category": {"lighting"},
			"limit":    {"5"},
			"skip":     {"15"},
			"sort":     {"-price"},
		})
		assert.Equal(t, "lighting", q.Category)
		assert.Equal(t, 5, q.Limit)
		assert.Equal(t, 15, q.Skip)
		assert.Equal(t, "price", q.SortField)
		assert.True(t, q.SortDesc)
	})

	t.Run("BadValuesFallBack", func(t *testing.T) {
		q := parseProductQuery(url.Values{
			"limit": {"banana"},
			"skip":  {"-3"},
		})
		assert.Equal(t, defaultLimit, q.Limit)
		assert.Zero(t, q.Skip)
	})

	t.Run("LimitCapped", func(t *testing.T) {
		q := parseProductQuery(url.Values{"limit": {"100000"}})
		assert.Equal(t, maxLimit, q.Limit)
	})
}

func TestNumberOfPages(t *testing.T) {
	assert.Equal(t, 0, numberOfPages(0, 10))
	assert.Equal(t, 1, numberOfPages(1, 10))
	assert.Equal(t, 1, numberOfPages(10, 10))
	assert.Equal(t, 2, numberOfPages(11, 10))
	assert.Equal(t, 5, numberOfPages(49, 10))
	assert.Equal(t, 0, numberOfPages(25, 0))
}

func TestPageLinks(t *testing.T) {
	const base = "http://localhost:8080/products"

	t.Run("FirstPage", func(t *testing.T) {
		links := pageLinks(base, url.Values{}, 10, 0, 25)

		assert.Equal(t, base+"?limit=10&skip=0", links["first"])
		assert.Equal(t, base+"?limit=10&skip=10", links["next"])
		assert.Equal(t, base+"?limit=10&skip=20", links["last"])
		assert.NotContains(t, links, "prev")
	})

	t.Run("MiddlePage", func(t *testing.T) {
		links := pageLinks(base, url.Values{}, 10, 10, 25)

		assert.Equal(t, base+"?limit=10&skip=0", links["prev"])
		assert.Equal(t, base+"?limit=10&skip=20", links["next"])
	})

	t.Run("LastPage", func(t *testing.T) {
		links := pageLinks(base, url.Values{}, 10, 20, 25)

		assert.Equal(t, base+"?limit=10&skip=10", links["prev"])
		assert.NotContains(t, links, "next")
		assert.Equal(t, base+"?limit=10&skip=20", links["last"])
	})

	t.Run("EmptyResult", func(t *testing.T) {
		links := pageLinks(base, url.Values{}, 10, 0, 0)

		assert.Equal(t, base+"?limit=10&skip=0", links["first"])
		assert.Equal(t, base+"?limit=10&skip=0", links["last"])
		assert.NotContains(t, links, "prev")
		assert.NotContains(t, links, "next")
	})

	t.Run("CarriesFilterParams", func(t *testing.T) {
		q := url.Values{"category": {"furniture"}, "sort": {"-price"}}
		links := pageLinks(base, q, 2, 0, 5)

		assert.Equal(
			t, base+"?category=furniture&limit=2&skip=2&sort=-price",
			links["next"],
		)
	})

	t.Run("PrevClampsToZero", func(t *testing.T) {
		links := pageLinks(base, url.Values{}, 10, 5, 25)
		assert.Equal(t, base+"?limit=10&skip=0", links["prev"])
	})
}
