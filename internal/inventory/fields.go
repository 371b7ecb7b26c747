package inventory

// fields.go defines the closed table of updatable fields.
//
// Both the bot's key=value commands and explicit updates funnel through
// this table: each entry maps a field name (or alias) to a typed parser
// that assigns into a Candidate. Unknown keys and values that fail
// conversion are dropped per field rather than aborting the whole
// command, preserving the "any subset of fields may be supplied"
// ergonomics without dynamic attribute access.

import (
	"sort"
	"strconv"
	"strings"
)

type fieldDef struct {
	// canonical is the field's storage name, reported back to the user
	// after an update.
	canonical string
	parse     func(c *Candidate, raw string) error
}

var errBadValue = &ValidationError{Msg: "value failed conversion"}

func textField(canonical string, assign func(c *Candidate, v string)) fieldDef {
	return fieldDef{canonical, func(c *Candidate, raw string) error {
		assign(c, raw)
		return nil
	}}
}

func intField(canonical string, assign func(c *Candidate, v int)) fieldDef {
	return fieldDef{canonical, func(c *Candidate, raw string) error {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return errBadValue
		}
		assign(c, v)
		return nil
	}}
}

// fieldTable is the closed set of settable fields, keyed by canonical
// name and the shorthand aliases the original command surface accepts.
var fieldTable = map[string]fieldDef{
	"brand": textField("brand", func(c *Candidate, v string) { c.Brand = &v }),

	"model":      textField("model_code", func(c *Candidate, v string) { c.ModelCode = &v }),
	"model_code": textField("model_code", func(c *Candidate, v string) { c.ModelCode = &v }),

	"material": textField("material", func(c *Candidate, v string) {
		m := NormalizeMaterial(v)
		c.Material = &m
	}),

	"lens":       intField("lens_width", func(c *Candidate, v int) { c.LensWidth = &v }),
	"lens_width": intField("lens_width", func(c *Candidate, v int) { c.LensWidth = &v }),

	"bridge":      intField("bridge_size", func(c *Candidate, v int) { c.BridgeSize = &v }),
	"bridge_size": intField("bridge_size", func(c *Candidate, v int) { c.BridgeSize = &v }),

	"temple":        intField("temple_length", func(c *Candidate, v int) { c.TempleLength = &v }),
	"temple_length": intField("temple_length", func(c *Candidate, v int) { c.TempleLength = &v }),

	"color":  textField("color", func(c *Candidate, v string) { c.Color = &v }),
	"shape":  textField("shape", func(c *Candidate, v string) { c.Shape = &v }),
	"gender": textField("gender", func(c *Candidate, v string) { c.Gender = &v }),

	"price": {"price", func(c *Candidate, raw string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 {
			return errBadValue
		}
		c.Price = &v
		return nil
	}},

	"stock": intField("stock", func(c *Candidate, v int) { c.Stock = &v }),

	"notes": textField("notes", func(c *Candidate, v string) { c.Notes = &v }),
}

// ParseFields converts a key=value map into a Candidate. Unknown keys
// and unconvertible values are silently dropped; the returned slice
// lists the canonical names of the fields that survived, sorted for
// deterministic messages.
func ParseFields(kv map[string]string) (*Candidate, []string) {
	c := &Candidate{}
	seen := map[string]bool{}

	for k, raw := range kv {
		def, ok := fieldTable[strings.ToLower(k)]
		if !ok {
			continue
		}
		if err := def.parse(c, raw); err != nil {
			continue
		}
		seen[def.canonical] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return c, names
}

// applyTo overwrites the frame's fields with every value the candidate
// supplies, unconditionally. This is a direct edit, not a
// reconciliation: the fill-only-if-empty policy does not apply here.
func (c *Candidate) applyTo(f *Frame) {
	if c.Brand != nil {
		f.Brand = c.Brand
	}
	if c.ModelCode != nil {
		f.ModelCode = *c.ModelCode
	}
	if c.Material != nil {
		f.Material = *c.Material
	}
	if c.LensWidth != nil {
		f.LensWidth = c.LensWidth
	}
	if c.BridgeSize != nil {
		f.BridgeSize = c.BridgeSize
	}
	if c.TempleLength != nil {
		f.TempleLength = c.TempleLength
	}
	if c.Color != nil {
		f.Color = c.Color
	}
	if c.Shape != nil {
		f.Shape = c.Shape
	}
	if c.Gender != nil {
		f.Gender = c.Gender
	}
	if c.Price != nil {
		f.Price = c.Price
	}
	if c.Stock != nil {
		f.Stock = *c.Stock
	}
	if c.Notes != nil {
		f.Notes = c.Notes
	}
}

// FieldHelp lists the accepted field names with their aliases, for the
// help surfaces.
func FieldHelp() string {
	return "model/model_code, brand, material, lens(lens_width), bridge(bridge_size), " +
		"temple(temple_length), color, shape, gender, price, stock, notes"
}
