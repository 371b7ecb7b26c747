package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store for engine tests. It reuses
// Criteria.Matches so search behavior stays aligned with the SQL
// translation contract.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	frames map[int64]*Frame
}

func newMemStore() *memStore {
	return &memStore{frames: make(map[int64]*Frame)}
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{s: s})
}

func (s *memStore) Get(ctx context.Context, id int64) (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id), nil
}

func (s *memStore) get(id int64) *Frame {
	f, ok := s.frames[id]
	if !ok {
		return nil
	}
	cp := *f
	return &cp
}

func (s *memStore) Search(ctx context.Context, c Criteria, limit int, order Order) ([]Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Frame
	for _, f := range s.frames {
		if c.Matches(f) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		switch order {
		case OrderIDAscending:
			return a.ID < b.ID
		case OrderModelAscending:
			return strings.ToLower(a.ModelCode) < strings.ToLower(b.ModelCode)
		case OrderStockAscending:
			if a.Stock != b.Stock {
				return a.Stock < b.Stock
			}
			return a.ID < b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.frames)), nil
}

func (s *memStore) MaterialCounts(ctx context.Context, top int) ([]MaterialCount, error) {
	return nil, nil
}

func (s *memStore) Duplicates(ctx context.Context, limit int) ([]DuplicateGroup, error) {
	return nil, nil
}

func (s *memStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{TotalFrames: int64(len(s.frames))}
	for _, f := range s.frames {
		stats.TotalStock += int64(f.Stock)
	}
	return stats, nil
}

// memTx mutates the store directly; the test store holds the lock for
// the whole unit of work, which also satisfies the per-key
// serialization contract.
type memTx struct {
	s *memStore
}

func (t *memTx) Get(ctx context.Context, id int64) (*Frame, error) {
	return t.s.get(id), nil
}

func (t *memTx) FindByKey(ctx context.Context, key MatchKey) (*Frame, error) {
	var best *Frame
	for _, f := range t.s.frames {
		if f.Key() == key && (best == nil || f.ID < best.ID) {
			best = f
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (t *memTx) Insert(ctx context.Context, f *Frame) error {
	t.s.nextID++
	f.ID = t.s.nextID
	cp := *f
	t.s.frames[f.ID] = &cp
	return nil
}

func (t *memTx) Update(ctx context.Context, f *Frame) error {
	if _, ok := t.s.frames[f.ID]; !ok {
		return errors.New("update of missing row")
	}
	cp := *f
	t.s.frames[f.ID] = &cp
	return nil
}

func (t *memTx) Delete(ctx context.Context, id int64) error {
	if _, ok := t.s.frames[id]; !ok {
		return errors.New("delete of missing row")
	}
	delete(t.s.frames, id)
	return nil
}

func sp(s string) *string   { return &s }
func ip(n int) *int         { return &n }
func fp(f float64) *float64 { return &f }

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	e := NewEngine(store, 2000)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e, store
}

func TestUpsertCreateThenMerge(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Upsert(ctx, &Candidate{
		Brand:     sp("Ray-Ban"),
		ModelCode: sp("RB2140"),
		Stock:     ip(2),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.Status != StatusCreated {
		t.Fatalf("status = %q, want %q", first.Status, StatusCreated)
	}
	if first.Frame.Stock != 2 {
		t.Errorf("stock = %d, want 2", first.Frame.Stock)
	}

	// Same item, different case: must merge, not create.
	second, err := e.Upsert(ctx, &Candidate{
		Brand:     sp("ray-ban"),
		ModelCode: sp("rb2140"),
		Stock:     ip(3),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Status != StatusMerged {
		t.Fatalf("status = %q, want %q", second.Status, StatusMerged)
	}
	if second.Frame.ID != first.Frame.ID {
		t.Errorf("merged into ID %d, want %d", second.Frame.ID, first.Frame.ID)
	}
	if second.PrevStock != 2 || second.Frame.Stock != 5 {
		t.Errorf("stock %d -> %d, want 2 -> 5", second.PrevStock, second.Frame.Stock)
	}
}

func TestUpsertStockDeltaDefaultsToOne(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{ModelCode: sp("A1")})
	if err != nil {
		t.Fatal(err)
	}
	if res.Frame.Stock != 1 {
		t.Fatalf("new frame stock = %d, want 1", res.Frame.Stock)
	}

	for _, stock := range []*int{nil, ip(0)} {
		res, err = e.Upsert(ctx, &Candidate{ModelCode: sp("A1"), Stock: stock})
		if err != nil {
			t.Fatal(err)
		}
	}
	// nil and explicit zero both count as a single re-scanned unit.
	if res.Frame.Stock != 3 {
		t.Errorf("stock after two bare re-scans = %d, want 3", res.Frame.Stock)
	}
}

func TestUpsertFillsOnlyEmptyFields(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Upsert(ctx, &Candidate{
		ModelCode: sp("OX8046"),
		Color:     sp("black"),
		Price:     fp(0),
	}); err != nil {
		t.Fatal(err)
	}

	res, err := e.Upsert(ctx, &Candidate{
		ModelCode: sp("OX8046"),
		Color:     sp("tortoise"),
		Shape:     sp("square"),
		Price:     fp(120),
	})
	if err != nil {
		t.Fatal(err)
	}
	f := res.Frame
	if f.Color == nil || *f.Color != "black" {
		t.Errorf("color overwritten: got %v, want black kept", f.Color)
	}
	if f.Shape == nil || *f.Shape != "square" {
		t.Errorf("empty shape not filled: got %v", f.Shape)
	}
	// A recorded zero price counts as empty and may be filled.
	if f.Price == nil || *f.Price != 120 {
		t.Errorf("zero price not refilled: got %v", f.Price)
	}

	// Re-merging identical data is idempotent apart from stock.
	res, err = e.Upsert(ctx, &Candidate{
		ModelCode: sp("OX8046"),
		Color:     sp("tortoise"),
		Shape:     sp("square"),
		Price:     fp(120),
	})
	if err != nil {
		t.Fatal(err)
	}
	f = res.Frame
	if *f.Color != "black" || *f.Shape != "square" || *f.Price != 120 {
		t.Errorf("fill not idempotent: %+v", f)
	}
}

func TestUpsertRequiresModelCode(t *testing.T) {
	e, _ := newTestEngine(t)

	for _, cand := range []*Candidate{
		{},
		{ModelCode: sp("   ")},
	} {
		_, err := e.Upsert(context.Background(), cand)
		var val *ValidationError
		if !errors.As(err, &val) {
			t.Errorf("Upsert(%+v) err = %v, want ValidationError", cand, err)
		}
	}
}

func TestUpsertBlankBrandSharesKeyWithNilBrand(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Upsert(ctx, &Candidate{ModelCode: sp("M100")})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Upsert(ctx, &Candidate{Brand: sp("  "), ModelCode: sp("M100")})
	if err != nil {
		t.Fatal(err)
	}
	if second.Status != StatusMerged || second.Frame.ID != first.Frame.ID {
		t.Errorf("blank brand did not merge with brandless record: %+v", second)
	}
}

func TestMergeCombinesAndDeletesSource(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	src, err := e.Upsert(ctx, &Candidate{
		Brand:     sp("Persol"),
		ModelCode: sp("PO0649"),
		Stock:     ip(4),
		Price:     fp(210),
	})
	if err != nil {
		t.Fatal(err)
	}
	tgt, err := e.Upsert(ctx, &Candidate{
		ModelCode: sp("PO-649"),
		Stock:     ip(1),
	})
	if err != nil {
		t.Fatal(err)
	}

	merged, err := e.Merge(ctx, src.Frame.ID, tgt.Frame.ID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != tgt.Frame.ID {
		t.Errorf("merged ID = %d, want target %d", merged.ID, tgt.Frame.ID)
	}
	if merged.Stock != 5 {
		t.Errorf("merged stock = %d, want 5", merged.Stock)
	}
	// Brand participates in the fill set on explicit merges.
	if merged.Brand == nil || *merged.Brand != "Persol" {
		t.Errorf("brand not filled from source: %v", merged.Brand)
	}
	if merged.Price == nil || *merged.Price != 210 {
		t.Errorf("price not filled from source: %v", merged.Price)
	}

	if f, _ := store.Get(ctx, src.Frame.ID); f != nil {
		t.Errorf("source record still present after merge: %+v", f)
	}
}

func TestMergeSameIDRejected(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{ModelCode: sp("X1"), Stock: ip(3)})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Merge(ctx, res.Frame.ID, res.Frame.ID)
	var inv *InvalidArgumentError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidArgumentError", err)
	}

	f, _ := store.Get(ctx, res.Frame.ID)
	if f == nil || f.Stock != 3 {
		t.Errorf("record mutated by rejected merge: %+v", f)
	}
}

func TestMergeMissingRecords(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{ModelCode: sp("X1")})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		src, tgt int64
	}{
		{"missing source", 999, res.Frame.ID},
		{"missing target", res.Frame.ID, 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Merge(ctx, tt.src, tt.tgt)
			var nf *NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("err = %v, want NotFoundError", err)
			}
			if nf.ID != 999 {
				t.Errorf("NotFoundError.ID = %d, want 999", nf.ID)
			}
		})
	}
}

func TestUpdateFieldsOverwrites(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{
		ModelCode: sp("U1"),
		Color:     sp("black"),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, applied, err := e.UpdateFields(ctx, res.Frame.ID, map[string]string{
		"color": "gold",
		"lens":  "54",
		"bogus": "x",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := []string{"color", "lens_width"}
	if len(applied) != len(want) || applied[0] != want[0] || applied[1] != want[1] {
		t.Errorf("applied = %v, want %v", applied, want)
	}
	if updated.Color == nil || *updated.Color != "gold" {
		t.Errorf("color = %v, want gold (unconditional overwrite)", updated.Color)
	}
	if updated.LensWidth == nil || *updated.LensWidth != 54 {
		t.Errorf("lens width = %v, want 54", updated.LensWidth)
	}
}

func TestUpdateFieldsNoValidFields(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{ModelCode: sp("U1")})
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = e.UpdateFields(ctx, res.Frame.ID, map[string]string{"bogus": "1", "lens": "abc"})
	var val *ValidationError
	if !errors.As(err, &val) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	f, _ := e.Get(ctx, res.Frame.ID)
	if f.LensWidth != nil {
		t.Errorf("record touched by rejected update: %+v", f)
	}
}

func TestUpdateFieldsMissingRecord(t *testing.T) {
	e, _ := newTestEngine(t)

	_, _, err := e.UpdateFields(context.Background(), 42, map[string]string{"color": "red"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestSetStockReturnsPrevious(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Upsert(ctx, &Candidate{ModelCode: sp("S1"), Stock: ip(7)})
	if err != nil {
		t.Fatal(err)
	}

	f, prev, err := e.SetStock(ctx, res.Frame.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 7 || f.Stock != 0 {
		t.Errorf("setstock %d -> %d, want 7 -> 0", prev, f.Stock)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.Delete(context.Background(), 42)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	store := newMemStore()
	e := NewEngine(store, 3)
	ctx := context.Background()

	for _, model := range []string{"A", "B", "C", "D", "E"} {
		if _, err := e.Upsert(ctx, &Candidate{ModelCode: sp(model)}); err != nil {
			t.Fatal(err)
		}
	}

	frames, err := e.Search(ctx, Criteria{}, 100, OrderIDAscending)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 {
		t.Errorf("len = %d, want ceiling 3", len(frames))
	}

	frames, err = e.Search(ctx, Criteria{}, 0, OrderIDAscending)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Errorf("len = %d, want floor 1", len(frames))
	}
}

func TestStatsAverageStockPerItem(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.AvgStockPerItem != nil {
		t.Errorf("empty set avg = %v, want nil", *stats.AvgStockPerItem)
	}

	for i, stock := range []int{2, 4} {
		if _, err := e.Upsert(ctx, &Candidate{ModelCode: sp(string(rune('A' + i))), Stock: ip(stock)}); err != nil {
			t.Fatal(err)
		}
	}
	stats, err = e.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.AvgStockPerItem == nil || *stats.AvgStockPerItem != 3 {
		t.Errorf("avg stock = %v, want 3", stats.AvgStockPerItem)
	}
}
