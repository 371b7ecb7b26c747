package inventory

import (
	"strings"
	"time"
)

// Criteria is a sparse set of search constraints. A nil field imposes no
// constraint; all supplied constraints combine with logical AND. Text
// constraints are case-insensitive substring matches, lens width is an
// exact match and the price bounds form a closed range.
//
// BrandExact and Since serve the export path, which filters on exact
// brand (case-insensitive) and creation date rather than substrings.
type Criteria struct {
	Brand     *string
	ModelCode *string
	Material  *string
	Color     *string
	Shape     *string
	Gender    *string

	LensWidth *int
	MinPrice  *float64
	MaxPrice  *float64

	// MaxStock selects frames at or below a stock threshold (low-stock
	// report).
	MaxStock *int

	BrandExact *string
	Since      *time.Time
}

// Order selects the result ordering for a search.
type Order int

const (
	// OrderNewestFirst sorts by creation time descending, id descending
	// as the tiebreak.
	OrderNewestFirst Order = iota
	// OrderIDAscending sorts by id ascending (the /list view).
	OrderIDAscending
	// OrderModelAscending sorts by model code ascending (the per-brand
	// view).
	OrderModelAscending
	// OrderStockAscending sorts by stock ascending (the low-stock view).
	OrderStockAscending
)

// IsZero reports whether no constraint is set. An empty criteria set
// degenerates search into a plain listing.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Matches evaluates the criteria against a single frame. The Postgres
// adapter pushes the same predicate down into SQL; this in-core form is
// the reference semantics and serves in-memory stores.
func (c Criteria) Matches(f *Frame) bool {
	if !containsFold(f.Brand, c.Brand) {
		return false
	}
	if !containsFold(&f.ModelCode, c.ModelCode) {
		return false
	}
	if !containsFold(&f.Material, c.Material) {
		return false
	}
	if !containsFold(f.Color, c.Color) {
		return false
	}
	if !containsFold(f.Shape, c.Shape) {
		return false
	}
	if !containsFold(f.Gender, c.Gender) {
		return false
	}

	if c.LensWidth != nil {
		if f.LensWidth == nil || *f.LensWidth != *c.LensWidth {
			return false
		}
	}
	if c.MinPrice != nil {
		if f.Price == nil || *f.Price < *c.MinPrice {
			return false
		}
	}
	if c.MaxPrice != nil {
		if f.Price == nil || *f.Price > *c.MaxPrice {
			return false
		}
	}
	if c.MaxStock != nil && f.Stock > *c.MaxStock {
		return false
	}

	if c.BrandExact != nil {
		b := ""
		if f.Brand != nil {
			b = *f.Brand
		}
		if !strings.EqualFold(b, *c.BrandExact) {
			return false
		}
	}
	if c.Since != nil && f.CreatedAt.Before(*c.Since) {
		return false
	}

	return true
}

// containsFold is a case-insensitive substring test against an optional
// text column. An unset column never matches a set constraint.
func containsFold(value *string, constraint *string) bool {
	if constraint == nil {
		return true
	}
	if value == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*value), strings.ToLower(*constraint))
}
