// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Numbered pages (directory listings)                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// DefaultPerPage is the directory page size when none is configured.
const DefaultPerPage = 10

// Pager describes one numbered page of a directory listing. Page is 1-based.
type Pager struct {
	Page    int
	PerPage int
	Total   int64

	// Query holds the request's other parameters so page links keep
	// the active letter and search filters.
	Query url.Values
}

// MaxPage caps the requested page number so Skip stays in range.
const MaxPage = 100000

// ParsePage reads the "page" query parameter (1-based). Invalid or missing
// values give page 1; values above MaxPage give MaxPage.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return min(n, MaxPage)
}

// NewPager builds a pager for the request. perPage <= 0 uses DefaultPerPage.
func NewPager(r *http.Request, perPage int) Pager {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	q := url.Values{}
	for k, v := range r.URL.Query() {
		if k != "page" {
			q[k] = v
		}
	}
	return Pager{Page: ParsePage(r), PerPage: perPage, Query: q}
}

// URL returns the query string linking to page n.
func (p Pager) URL(n int) string {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	return "?" + q.Encode()
}

// Skip is the number of rows before this page.
func (p Pager) Skip() int64 { return int64(p.Page-1) * int64(p.PerPage) }

// Limit is the page size as int64 for Find().SetLimit().
func (p Pager) Limit() int64 { return int64(p.PerPage) }

// Pages is the total page count (at least 1).
func (p Pager) Pages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.Pages() }
func (p Pager) Prev() int     { return p.Page - 1 }
func (p Pager) Next() int     { return p.Page + 1 }

/*─────────────────────────────────────────────────────────────────────────────*
| Admin lists                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// PageSize is the number of rows shown in admin lists.
const PageSize = 50
