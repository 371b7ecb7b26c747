package bot

// render.go holds the pure message formatters. Keeping them free of
// transport concerns makes the reply surface testable without a
// Telegram connection.

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/optiframe/optiframe/internal/export"
	"github.com/optiframe/optiframe/internal/inventory"
)

func brandLabel(s string) string {
	if s == "" {
		return "NoBrand"
	}
	return s
}

func dashInt(p *int) string {
	if p == nil || *p == 0 {
		return "-"
	}
	return strconv.Itoa(*p)
}

func dashFloat(p *float64) string {
	if p == nil || *p == 0 {
		return "-"
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}

func dashText(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}

// detailLine is the row format for /recent and /search results:
// id, brand, model, material and the lens-bridge-temple triple.
func detailLine(f *inventory.Frame) string {
	return fmt.Sprintf("%d: %s %s %s %s-%s-%s stock=%d",
		f.ID, f.Label(), f.ModelCode, f.Material,
		dashInt(f.LensWidth), dashInt(f.BridgeSize), dashInt(f.TempleLength),
		f.Stock)
}

func detailLines(frames []inventory.Frame) string {
	lines := make([]string, len(frames))
	for i := range frames {
		lines[i] = detailLine(&frames[i])
	}
	return strings.Join(lines, "\n")
}

func shortLines(frames []inventory.Frame) string {
	lines := make([]string, len(frames))
	for i := range frames {
		lines[i] = export.ShortLine(&frames[i])
	}
	return strings.Join(lines, "\n")
}

// renderGet is the full field dump for /get, in persisted column order.
func renderGet(f *inventory.Frame) string {
	rows := []struct{ k, v string }{
		{"id", strconv.FormatInt(f.ID, 10)},
		{"brand", dashText(f.Brand)},
		{"model_code", f.ModelCode},
		{"material", f.Material},
		{"lens_width", dashInt(f.LensWidth)},
		{"bridge_size", dashInt(f.BridgeSize)},
		{"temple_length", dashInt(f.TempleLength)},
		{"color", dashText(f.Color)},
		{"shape", dashText(f.Shape)},
		{"gender", dashText(f.Gender)},
		{"price", dashFloat(f.Price)},
		{"stock", strconv.Itoa(f.Stock)},
		{"notes", dashText(f.Notes)},
		{"created_at", f.CreatedAt.Format(time.RFC3339)},
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.k + ": " + r.v
	}
	return strings.Join(lines, "\n")
}

func renderStats(s *inventory.Stats) string {
	avgPrice := "-"
	if s.AvgPrice != nil {
		avgPrice = fmt.Sprintf("%.2f", *s.AvgPrice)
	}
	avgStock := "-"
	if s.AvgStockPerItem != nil {
		avgStock = fmt.Sprintf("%.2f", *s.AvgStockPerItem)
	}
	topCount := "-"
	if s.TopBrandByCount != nil {
		topCount = fmt.Sprintf("%s (%d frames)", brandLabel(s.TopBrandByCount.Brand), s.TopBrandByCount.Count)
	}
	topStock := "-"
	if s.TopBrandByStock != nil {
		topStock = fmt.Sprintf("%s (%d units)", brandLabel(s.TopBrandByStock.Brand), s.TopBrandByStock.Count)
	}

	return "Stats:\n" +
		fmt.Sprintf("Frames: %d\n", s.TotalFrames) +
		fmt.Sprintf("Brands: %d\n", s.DistinctBrands) +
		fmt.Sprintf("Top Brand (frames): %s\n", topCount) +
		fmt.Sprintf("Top Brand (stock): %s\n", topStock) +
		fmt.Sprintf("Total Stock Units: %d\n", s.TotalStock) +
		fmt.Sprintf("Avg Stock / Frame: %s\n", avgStock) +
		fmt.Sprintf("Avg Price: %s", avgPrice)
}

func renderCount(total int64, materials []inventory.MaterialCount) string {
	parts := make([]string, len(materials))
	for i, m := range materials {
		parts[i] = fmt.Sprintf("%s:%d", m.Material, m.Count)
	}
	top := strings.Join(parts, ", ")
	if top == "" {
		top = "(none)"
	}
	return fmt.Sprintf("Total frames: %d\nTop materials: %s", total, top)
}

func renderDuplicates(groups []inventory.DuplicateGroup) string {
	lines := make([]string, len(groups))
	for i, g := range groups {
		brand := "NoBrand"
		if g.Brand != nil && *g.Brand != "" {
			brand = *g.Brand
		}
		lines[i] = fmt.Sprintf("%s %s -> %d entries", brand, g.ModelCode, g.Count)
	}
	return "Possible duplicates:\n" + strings.Join(lines, "\n")
}

func renderLowStock(frames []inventory.Frame, threshold int) string {
	lines := make([]string, len(frames))
	for i := range frames {
		f := &frames[i]
		lines[i] = fmt.Sprintf("%d:%s %s stock=%d", f.ID, f.Label(), f.ModelCode, f.Stock)
	}
	return fmt.Sprintf("Low stock (<= %d):\n%s", threshold, strings.Join(lines, "\n"))
}
