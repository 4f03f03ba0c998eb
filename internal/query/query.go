// Package query filters and paginates in-memory record collections for
// dashboard views. Every function is pure: inputs are never modified and
// the same arguments always produce the same page.
package query

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// All is the categorical filter value that matches every record
const All = "all"

// DefaultPageSize is used when a non-positive page size is requested
const DefaultPageSize = 10

// Category is an exact-match filter on one field
type Category[T any] struct {
	Value string
	Field func(T) string
}

// active reports whether the filter constrains anything
func (c Category[T]) active() bool {
	v := strings.TrimSpace(c.Value)
	return v != "" && !strings.EqualFold(v, All) && c.Field != nil
}

// Criteria describes one filter state over a collection of T
type Criteria[T any] struct {
	// Search is matched case- and accent-insensitively as a substring of
	// any value SearchFields returns.
	Search       string
	SearchFields func(T) []string

	Categories []Category[T]

	// From and To are inclusive calendar-day bounds on DateField.
	// A nil bound leaves that side open.
	DateField func(T) time.Time
	From      *time.Time
	To        *time.Time
}

// Page is one slice of a filtered collection
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// State is the pagination position of a dashboard view
type State struct {
	Page     int
	PageSize int
}

// WithPage moves to page n
func (s State) WithPage(n int) State {
	s.Page = n
	return s
}

// WithPageSize changes the page size and goes back to the first page
func (s State) WithPageSize(n int) State {
	return State{Page: 1, PageSize: n}
}

// Filter returns the records of items matching c, in their original order
func Filter[T any](items []T, c Criteria[T]) []T {
	term := fold(strings.TrimSpace(c.Search))
	from, to := dayBounds(c.From, c.To)

	out := make([]T, 0, len(items))
	for _, item := range items {
		if !matchesSearch(item, term, c.SearchFields) {
			continue
		}
		if !matchesCategories(item, c.Categories) {
			continue
		}
		if c.DateField != nil && !inRange(c.DateField(item), from, to) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Paginate returns page of items. Pages are 1-based; a page below 1 yields
// the first page and a page past the end yields the last one.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}

	total := len(items)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}

	if page < 1 {
		page = 1
	}
	if last := max(totalPages, 1); page > last {
		page = last
	}

	// page-1 < totalPages here, so the offset cannot overflow
	start := (page - 1) * size
	end := start + min(size, total-start)

	pageItems := slices.Clone(items[start:end:end])
	if pageItems == nil {
		pageItems = []T{}
	}

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}

// Run filters items by c and returns the page addressed by s
func Run[T any](items []T, c Criteria[T], s State) Page[T] {
	return Paginate(Filter(items, c), s.Page, s.PageSize)
}

func matchesSearch[T any](item T, term string, fields func(T) []string) bool {
	if term == "" || fields == nil {
		return true
	}
	for _, f := range fields(item) {
		if strings.Contains(fold(f), term) {
			return true
		}
	}
	return false
}

func matchesCategories[T any](item T, categories []Category[T]) bool {
	for _, c := range categories {
		if c.active() && c.Field(item) != strings.TrimSpace(c.Value) {
			return false
		}
	}
	return true
}

func dayBounds(from, to *time.Time) (time.Time, time.Time) {
	var lo, hi time.Time
	if from != nil {
		lo = dateOnly(*from)
	}
	if to != nil {
		hi = dateOnly(*to)
	}
	return lo, hi
}

func inRange(t, from, to time.Time) bool {
	d := dateOnly(t)
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// dateOnly keeps the calendar date of t as seen in its own location
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fold lower-cases s and strips combining marks so "González" matches "gonzalez"
func fold(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
