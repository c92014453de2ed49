// Package listing holds the pagination, sorting and substring-filter
// parameters shared by the admin list queries.
package listing

import (
	"fmt"
	"strings"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder returns Asc for "asc" (case-insensitive) and Desc for anything else.
func ParseOrder(s string) Order {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}

// Params describes one page of a filtered, single-column-sorted list.
type Params struct {
	Page        int
	Limit       int
	SortField   string
	SortOrder   Order
	SearchField string
	SearchValue string
}

// Normalize clamps page and limit into range. A Limit of zero or less
// becomes defaultLimit.
func (p *Params) Normalize(defaultLimit, maxLimit int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.SortOrder != Asc {
		p.SortOrder = Desc
	}
}

// Offset returns the row offset of the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// HasNextPage reports whether rows exist beyond the page.
func HasNextPage(page, limit, total int) bool {
	return (page-1)*limit+limit < total
}

// OrderBy builds an ORDER BY expression from an allow-list mapping API field
// names to SQL columns. Unknown fields fall back to fallback, which is always
// sorted descending when the requested field was not recognised.
func OrderBy(allowed map[string]string, field string, order Order, fallback string) string {
	col, ok := allowed[field]
	if !ok {
		return fmt.Sprintf("%s DESC", fallback)
	}
	dir := "DESC"
	if order == Asc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s", col, dir)
}

// ContainsPattern returns an ILIKE pattern matching value as a substring,
// with LIKE metacharacters escaped.
func ContainsPattern(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(value) + "%"
}
