package ledger

import "time"

// Filter is the query grammar of spec §4.3.
type Filter struct {
	Kind          *TransactionKind
	Status        *Status
	FromTime      *time.Time
	ToTime        *time.Time
	AccountNumber *string
	MinAmount     *string
	MaxAmount     *string
}

// SortDir is the direction of a Paging sort.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Paging is the pagination grammar of spec §4.3. Page is 1-based; Limit
// is clamped to [1,100] by NormalizePaging.
type Paging struct {
	Page    int
	Limit   int
	SortBy  string
	SortDir SortDir
}

// NormalizePaging fills in the default {page:1, limit:20,
// sortBy:createdAt, sortDir:desc} and clamps Limit to spec §4.3's
// [1,100] range.
func NormalizePaging(p Paging) Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if p.SortDir == "" {
		p.SortDir = Desc
	}
	return p
}

// Offset returns the zero-based row offset for p (assumes
// NormalizePaging has already run).
func (p Paging) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is a single page of results plus the total row count matching
// the filter, for caller-side page-count computation.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
}
