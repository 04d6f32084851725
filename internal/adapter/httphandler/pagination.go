package httphandler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/niksmo/marketplace/internal/core/domain"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// parseProductQuery reads the list parameters. Bad values fall back
// to defaults, listing never fails on its query string.
func parseProductQuery(query url.Values) domain.ProductQuery {
	q := domain.ProductQuery{
		Category: query.Get("category"),
		Limit:    defaultLimit,
	}

	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		q.Limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(query.Get("skip")); err == nil && v > 0 {
		q.Skip = v
	}

	// "-field" sorts descending
	if sort := query.Get("sort"); sort != "" {
		q.SortField = strings.TrimPrefix(sort, "-")
		q.SortDesc = strings.HasPrefix(sort, "-")
	}
	return q
}

// pageLinks derives first/prev/next/last URLs from the current query
// and the total match count. Pure function, no hidden state.
func pageLinks(baseURL string, query url.Values, limit, skip, total int) map[string]string {
	if limit <= 0 {
		limit = defaultLimit
	}

	link := func(skip int) string {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("limit", strconv.Itoa(limit))
		q.Set("skip", strconv.Itoa(skip))
		return baseURL + "?" + q.Encode()
	}

	links := map[string]string{"first": link(0)}

	lastSkip := 0
	if total > 0 {
		lastSkip = (numberOfPages(total, limit) - 1) * limit
	}
	links["last"] = link(lastSkip)

	if skip > 0 {
		links["prev"] = link(max(skip-limit, 0))
	}
	if skip+limit < total {
		links["next"] = link(skip + limit)
	}
	return links
}

func numberOfPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
