// ABOUTME: List query parameters and their wire serialization
// ABOUTME: Absent fields are omitted rather than sent as empty values

package api

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
)

// SortDirection is the ordering applied to a sort key.
type SortDirection string

// Sort directions accepted by the backend.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Sort names a column and direction.
type Sort struct {
	Key       string
	Direction SortDirection
}

// Query holds the list parameters for a collection request.
type Query struct {
	Search   string
	Filters  map[string]string
	Page     int
	PageSize int
	Sort     *Sort
}

// Clone returns a deep copy so callers can mutate it freely.
func (q Query) Clone() Query {
	out := q
	if q.Filters != nil {
		out.Filters = maps.Clone(q.Filters)
	}
	if q.Sort != nil {
		s := *q.Sort
		out.Sort = &s
	}
	return out
}

// Values serializes the query. Empty search, empty filter values,
// non-positive page numbers and a missing sort are left out.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("per_page", strconv.Itoa(q.PageSize))
	}
	if q.Sort != nil && q.Sort.Key != "" {
		v.Set("sort_by", q.Sort.Key)
		dir := q.Sort.Direction
		if dir == "" {
			dir = SortAsc
		}
		v.Set("sort_order", string(dir))
	}

	// Deterministic order keeps logs and tests stable
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := q.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Meta is the paging metadata returned with every list response.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// Page is one page of list results. It is replaced wholesale on every
// successful fetch and never mutated in place.
type Page[T any] struct {
	Items      []T
	TotalPages int
	TotalItems int
}

// listEnvelope is the {data, meta} wire shape of list responses.
type listEnvelope[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}
