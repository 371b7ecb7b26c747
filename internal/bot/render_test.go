package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/optiframe/optiframe/internal/inventory"
)

func sp(s string) *string   { return &s }
func ip(n int) *int         { return &n }
func fp(f float64) *float64 { return &f }

func TestDetailLine(t *testing.T) {
	full := &inventory.Frame{
		ID:           7,
		Brand:        sp("Ray-Ban"),
		ModelCode:    "RB2140",
		Material:     "acetate",
		LensWidth:    ip(50),
		BridgeSize:   ip(22),
		TempleLength: ip(150),
		Stock:        3,
	}
	if got, want := detailLine(full), "7: Ray-Ban RB2140 acetate 50-22-150 stock=3"; got != want {
		t.Errorf("detailLine = %q, want %q", got, want)
	}

	sparse := &inventory.Frame{ID: 8, ModelCode: "GEN-1", Material: "unknown", Stock: 1}
	if got, want := detailLine(sparse), "8: NoBrand GEN-1 unknown ----- stock=1"; got != want {
		t.Errorf("detailLine = %q, want %q", got, want)
	}
}

func TestRenderGet(t *testing.T) {
	f := &inventory.Frame{
		ID:        3,
		Brand:     sp("Persol"),
		ModelCode: "PO0649",
		Material:  "acetate",
		Price:     fp(210),
		Stock:     2,
		CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	got := renderGet(f)

	for _, want := range []string{
		"id: 3",
		"brand: Persol",
		"model_code: PO0649",
		"lens_width: -",
		"price: 210",
		"created_at: 2026-02-01T10:00:00Z",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderGet missing %q:\n%s", want, got)
		}
	}
	if lines := strings.Split(got, "\n"); len(lines) != 14 {
		t.Errorf("renderGet has %d lines, want 14", len(lines))
	}
}

func TestRenderStats(t *testing.T) {
	avgPrice := 99.5
	avgStock := 1.5
	s := &inventory.Stats{
		TotalFrames:     4,
		DistinctBrands:  2,
		AvgPrice:        &avgPrice,
		TotalStock:      6,
		TopBrandByCount: &inventory.BrandTally{Brand: "Oakley", Count: 3},
		TopBrandByStock: &inventory.BrandTally{Brand: "", Count: 4},
		AvgStockPerItem: &avgStock,
	}
	got := renderStats(s)

	for _, want := range []string{
		"Frames: 4",
		"Brands: 2",
		"Top Brand (frames): Oakley (3 frames)",
		"Top Brand (stock): NoBrand (4 units)",
		"Total Stock Units: 6",
		"Avg Stock / Frame: 1.50",
		"Avg Price: 99.50",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderStats missing %q:\n%s", want, got)
		}
	}
}

func TestRenderStatsEmpty(t *testing.T) {
	got := renderStats(&inventory.Stats{})
	for _, want := range []string{
		"Frames: 0",
		"Top Brand (frames): -",
		"Avg Price: -",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderStats missing %q:\n%s", want, got)
		}
	}
}

func TestRenderCount(t *testing.T) {
	got := renderCount(10, []inventory.MaterialCount{
		{Material: "metal", Count: 6},
		{Material: "acetate", Count: 4},
	})
	if want := "Total frames: 10\nTop materials: metal:6, acetate:4"; got != want {
		t.Errorf("renderCount = %q, want %q", got, want)
	}

	if got := renderCount(0, nil); got != "Total frames: 0\nTop materials: (none)" {
		t.Errorf("renderCount empty = %q", got)
	}
}

func TestRenderDuplicates(t *testing.T) {
	got := renderDuplicates([]inventory.DuplicateGroup{
		{Brand: sp("Ray-Ban"), ModelCode: "rb2140", Count: 2},
		{Brand: nil, ModelCode: "gen-1", Count: 3},
	})
	for _, want := range []string{
		"Possible duplicates:",
		"Ray-Ban rb2140 -> 2 entries",
		"NoBrand gen-1 -> 3 entries",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderDuplicates missing %q:\n%s", want, got)
		}
	}
}

func TestRenderLowStock(t *testing.T) {
	got := renderLowStock([]inventory.Frame{
		{ID: 1, ModelCode: "A1", Stock: 0},
		{ID: 2, Brand: sp("Oakley"), ModelCode: "OX1", Stock: 2},
	}, 2)
	for _, want := range []string{
		"Low stock (<= 2):",
		"1:NoBrand A1 stock=0",
		"2:Oakley OX1 stock=2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("renderLowStock missing %q:\n%s", want, got)
		}
	}
}

func TestUpsertReply(t *testing.T) {
	f := &inventory.Frame{ID: 5, Brand: sp("Persol"), ModelCode: "PO0649", Stock: 4}

	created := upsertReply(&inventory.UpsertResult{Frame: f, Status: inventory.StatusCreated})
	if !strings.Contains(created, "Added ID=5") || !strings.Contains(created, "Stock=4") {
		t.Errorf("created reply = %q", created)
	}

	merged := upsertReply(&inventory.UpsertResult{Frame: f, Status: inventory.StatusMerged, PrevStock: 3})
	if !strings.Contains(merged, "Updated existing ID=5") || !strings.Contains(merged, "Stock: 3 -> 4") {
		t.Errorf("merged reply = %q", merged)
	}
}

func TestCriteriaFromKV(t *testing.T) {
	c := criteriaFromKV(map[string]string{
		"brand":     "ray",
		"lens":      "52",
		"min_price": "100",
		"max_price": "oops",
		"gender":    "",
	})
	if c.Brand == nil || *c.Brand != "ray" {
		t.Errorf("brand = %v", c.Brand)
	}
	if c.LensWidth == nil || *c.LensWidth != 52 {
		t.Errorf("lens = %v", c.LensWidth)
	}
	if c.MinPrice == nil || *c.MinPrice != 100 {
		t.Errorf("min price = %v", c.MinPrice)
	}
	if c.MaxPrice != nil {
		t.Errorf("unparsable max price kept: %v", *c.MaxPrice)
	}
	if c.Gender != nil {
		t.Errorf("blank gender kept: %v", *c.Gender)
	}
}
