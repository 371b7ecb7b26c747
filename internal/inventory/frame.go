// Package inventory provides the business logic for the optical frames
// catalog: deduplicating upserts, record merges, field updates, filtered
// search and aggregate statistics. Persistence is delegated to a Store
// implementation; this package owns the policy of when and how fields
// change.
package inventory

import (
	"strings"
	"time"
)

// Materials is the closed set of accepted frame materials.
// Values outside the set are coerced to "unknown" rather than rejected.
var Materials = []string{
	"plastic",
	"acetate",
	"metal",
	"stainless steel",
	"titanium",
	"aluminum",
	"wood",
	"carbon fiber",
	"other",
	"unknown",
}

// MaterialUnknown is the default material for new frames.
const MaterialUnknown = "unknown"

// NormalizeMaterial lowercases a material value and coerces anything
// outside the closed set to "unknown".
func NormalizeMaterial(raw string) string {
	m := strings.ToLower(strings.TrimSpace(raw))
	for _, allowed := range Materials {
		if m == allowed {
			return m
		}
	}
	return MaterialUnknown
}

// Frame is a single catalog item. Optional columns are pointer-typed;
// nil means the value was never recorded.
type Frame struct {
	ID           int64
	Brand        *string
	ModelCode    string
	Material     string
	LensWidth    *int
	BridgeSize   *int
	TempleLength *int
	Color        *string
	Shape        *string
	Gender       *string
	Price        *float64
	Stock        int
	Notes        *string
	CreatedAt    time.Time
}

// Label returns the display name for a frame's brand, substituting
// "NoBrand" when none is recorded.
func (f *Frame) Label() string {
	if f.Brand == nil || *f.Brand == "" {
		return "NoBrand"
	}
	return *f.Brand
}

// MatchKey is the derived identity used to decide whether two records
// denote the same catalog item. It is computed, never stored.
type MatchKey struct {
	Brand string
	Model string
}

// NormalizeKey computes the matching key for a brand/model pair:
// both components lowercased, with an absent or blank brand mapped to "".
func NormalizeKey(brand *string, modelCode string) MatchKey {
	b := ""
	if brand != nil {
		b = strings.ToLower(strings.TrimSpace(*brand))
	}
	return MatchKey{
		Brand: b,
		Model: strings.ToLower(strings.TrimSpace(modelCode)),
	}
}

// Key returns the frame's own matching key.
func (f *Frame) Key() MatchKey {
	return NormalizeKey(f.Brand, f.ModelCode)
}

// Candidate is a partial frame supplied to Upsert or parsed from a
// field=value command. Every field is optional except the model code,
// which Upsert requires.
type Candidate struct {
	Brand        *string
	ModelCode    *string
	Material     *string
	LensWidth    *int
	BridgeSize   *int
	TempleLength *int
	Color        *string
	Shape        *string
	Gender       *string
	Price        *float64
	Stock        *int
	Notes        *string
}

// newFrame builds a fresh frame from the candidate. A missing stock
// defaults to 1: a newly discovered item is assumed to have at least one
// unit on hand.
func (c *Candidate) newFrame(now time.Time) *Frame {
	f := &Frame{
		Brand:        c.Brand,
		Material:     MaterialUnknown,
		LensWidth:    c.LensWidth,
		BridgeSize:   c.BridgeSize,
		TempleLength: c.TempleLength,
		Color:        c.Color,
		Shape:        c.Shape,
		Gender:       c.Gender,
		Price:        c.Price,
		Stock:        1,
		Notes:        c.Notes,
		CreatedAt:    now,
	}
	if c.ModelCode != nil {
		f.ModelCode = *c.ModelCode
	}
	if c.Material != nil {
		f.Material = *c.Material
	}
	if c.Stock != nil {
		f.Stock = *c.Stock
	}
	return f
}

// candidateOf converts a stored frame into a fill source for an explicit
// merge, where the source record's fields (brand included) may fill gaps
// in the target.
func candidateOf(f *Frame) *Candidate {
	material := f.Material
	return &Candidate{
		Brand:        f.Brand,
		Material:     &material,
		LensWidth:    f.LensWidth,
		BridgeSize:   f.BridgeSize,
		TempleLength: f.TempleLength,
		Color:        f.Color,
		Shape:        f.Shape,
		Gender:       f.Gender,
		Price:        f.Price,
		Notes:        f.Notes,
	}
}

// fillMissing copies candidate values into the frame wherever the
// frame's current value is empty and the candidate supplies a non-blank
// one. Empty means nil, blank text, or numeric zero, so a recorded zero
// is refillable. Existing non-empty values are never overwritten.
//
// withBrand extends the fill set to the brand column, which only the
// explicit two-record merge does.
func fillMissing(f *Frame, c *Candidate, withBrand bool) {
	if f.Material == "" && c.Material != nil && *c.Material != "" {
		f.Material = *c.Material
	}
	fillInt(&f.LensWidth, c.LensWidth)
	fillInt(&f.BridgeSize, c.BridgeSize)
	fillInt(&f.TempleLength, c.TempleLength)
	fillText(&f.Color, c.Color)
	fillText(&f.Shape, c.Shape)
	fillText(&f.Gender, c.Gender)
	fillFloat(&f.Price, c.Price)
	fillText(&f.Notes, c.Notes)
	if withBrand {
		fillText(&f.Brand, c.Brand)
	}
}

func fillText(dst **string, src *string) {
	if src == nil || *src == "" {
		return
	}
	if *dst == nil || **dst == "" {
		v := *src
		*dst = &v
	}
}

func fillInt(dst **int, src *int) {
	if src == nil {
		return
	}
	if *dst == nil || **dst == 0 {
		v := *src
		*dst = &v
	}
}

func fillFloat(dst **float64, src *float64) {
	if src == nil {
		return
	}
	if *dst == nil || **dst == 0 {
		v := *src
		*dst = &v
	}
}
