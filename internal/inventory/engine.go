package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/optiframe/optiframe/internal/logging"
	"github.com/optiframe/optiframe/internal/metrics"
)

// UpsertStatus reports which path an upsert took.
type UpsertStatus string

const (
	// StatusCreated means no record shared the candidate's matching key
	// and a new one was inserted.
	StatusCreated UpsertStatus = "created"
	// StatusMerged means an existing record absorbed the candidate.
	StatusMerged UpsertStatus = "merged"
)

// UpsertResult carries the affected frame plus the information the front
// ends report back: which path was taken and the stock before the call.
type UpsertResult struct {
	Frame     *Frame
	Status    UpsertStatus
	PrevStock int
}

// Engine implements the core operation surface over a Store. It is
// stateless between calls; every operation is a bounded request/response
// that acquires at most one unit of work.
type Engine struct {
	store   Store
	maxRows int
	now     func() time.Time
}

// NewEngine creates an Engine. maxRows is the safety ceiling applied to
// search and export limits.
func NewEngine(store Store, maxRows int) *Engine {
	if maxRows <= 0 {
		maxRows = 2000
	}
	return &Engine{
		store:   store,
		maxRows: maxRows,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// MaxRows returns the configured limit ceiling.
func (e *Engine) MaxRows() int {
	return e.maxRows
}

// Upsert creates a new frame or merges the candidate into the record
// sharing its matching key.
//
// On the merge path the candidate's stock (or 1, when absent or zero) is
// added to the existing stock — a bare re-scan of an item counts as one
// more unit on hand — and the remaining fields fill only where the
// existing value is empty. The lookup and write happen in one unit of
// work, serialized per matching key by the store.
func (e *Engine) Upsert(ctx context.Context, cand *Candidate) (result *UpsertResult, err error) {
	defer e.observe(ctx, "upsert", time.Now(), &err)

	if cand.ModelCode == nil || strings.TrimSpace(*cand.ModelCode) == "" {
		return nil, &ValidationError{Field: "model_code", Msg: "required"}
	}
	key := NormalizeKey(cand.Brand, *cand.ModelCode)

	err = e.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.FindByKey(ctx, key)
		if err != nil {
			return &StoreError{Op: "find by key", Err: err}
		}

		if existing != nil {
			prev := existing.Stock
			delta := 1
			if cand.Stock != nil && *cand.Stock != 0 {
				delta = *cand.Stock
			}
			existing.Stock += delta
			fillMissing(existing, cand, false)
			if err := tx.Update(ctx, existing); err != nil {
				return &StoreError{Op: "update", Err: err}
			}
			result = &UpsertResult{Frame: existing, Status: StatusMerged, PrevStock: prev}
			return nil
		}

		f := cand.newFrame(e.now())
		if err := tx.Insert(ctx, f); err != nil {
			return &StoreError{Op: "insert", Err: err}
		}
		result = &UpsertResult{Frame: f, Status: StatusCreated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Merge combines two distinct existing records: the target absorbs the
// source's stock and fills its empty fields (brand included) from the
// source, then the source is deleted. Both effects land in one unit of
// work or neither does.
func (e *Engine) Merge(ctx context.Context, sourceID, targetID int64) (merged *Frame, err error) {
	defer e.observe(ctx, "merge", time.Now(), &err)

	if sourceID == targetID {
		return nil, &InvalidArgumentError{Msg: "merge source and target must differ"}
	}

	err = e.store.WithTx(ctx, func(tx Tx) error {
		src, err := tx.Get(ctx, sourceID)
		if err != nil {
			return &StoreError{Op: "get", Err: err}
		}
		if src == nil {
			return &NotFoundError{ID: sourceID}
		}
		tgt, err := tx.Get(ctx, targetID)
		if err != nil {
			return &StoreError{Op: "get", Err: err}
		}
		if tgt == nil {
			return &NotFoundError{ID: targetID}
		}

		tgt.Stock += src.Stock
		fillMissing(tgt, candidateOf(src), true)

		if err := tx.Delete(ctx, src.ID); err != nil {
			return &StoreError{Op: "delete", Err: err}
		}
		if err := tx.Update(ctx, tgt); err != nil {
			return &StoreError{Op: "update", Err: err}
		}
		merged = tgt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// UpdateFields applies a key=value field set to an existing frame,
// unconditionally overwriting the named fields. Individually invalid
// fields are dropped; if nothing survives validation the call fails
// without touching the record. Returns the updated frame and the
// canonical names of the fields that were applied.
func (e *Engine) UpdateFields(ctx context.Context, id int64, kv map[string]string) (updated *Frame, applied []string, err error) {
	defer e.observe(ctx, "update", time.Now(), &err)

	cand, names := ParseFields(kv)
	if len(names) == 0 {
		return nil, nil, &ValidationError{Msg: "no valid fields"}
	}

	err = e.store.WithTx(ctx, func(tx Tx) error {
		f, err := tx.Get(ctx, id)
		if err != nil {
			return &StoreError{Op: "get", Err: err}
		}
		if f == nil {
			return &NotFoundError{ID: id}
		}
		cand.applyTo(f)
		if err := tx.Update(ctx, f); err != nil {
			return &StoreError{Op: "update", Err: err}
		}
		updated = f
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, names, nil
}

// Search returns the frames matching the criteria, newest first unless
// another order is requested. The limit is clamped to the engine's
// ceiling; an empty result is a normal outcome, not an error.
func (e *Engine) Search(ctx context.Context, c Criteria, limit int, order Order) (frames []Frame, err error) {
	defer e.observe(ctx, "search", time.Now(), &err)

	limit = e.clamp(limit)
	frames, err = e.store.Search(ctx, c, limit, order)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	return frames, nil
}

// Get resolves a single frame by id.
func (e *Engine) Get(ctx context.Context, id int64) (f *Frame, err error) {
	defer e.observe(ctx, "get", time.Now(), &err)

	f, err = e.store.Get(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	if f == nil {
		return nil, &NotFoundError{ID: id}
	}
	return f, nil
}

// Delete removes a frame by id.
func (e *Engine) Delete(ctx context.Context, id int64) (err error) {
	defer e.observe(ctx, "delete", time.Now(), &err)

	return e.store.WithTx(ctx, func(tx Tx) error {
		f, err := tx.Get(ctx, id)
		if err != nil {
			return &StoreError{Op: "get", Err: err}
		}
		if f == nil {
			return &NotFoundError{ID: id}
		}
		if err := tx.Delete(ctx, id); err != nil {
			return &StoreError{Op: "delete", Err: err}
		}
		return nil
	})
}

// SetStock overwrites a frame's stock and returns the updated frame with
// the previous value.
func (e *Engine) SetStock(ctx context.Context, id int64, value int) (f *Frame, prev int, err error) {
	defer e.observe(ctx, "setstock", time.Now(), &err)

	err = e.store.WithTx(ctx, func(tx Tx) error {
		got, err := tx.Get(ctx, id)
		if err != nil {
			return &StoreError{Op: "get", Err: err}
		}
		if got == nil {
			return &NotFoundError{ID: id}
		}
		prev = got.Stock
		got.Stock = value
		if err := tx.Update(ctx, got); err != nil {
			return &StoreError{Op: "update", Err: err}
		}
		f = got
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return f, prev, nil
}

// Stats computes the aggregate report over the whole record set.
func (e *Engine) Stats(ctx context.Context) (s *Stats, err error) {
	defer e.observe(ctx, "stats", time.Now(), &err)

	s, err = e.store.Stats(ctx)
	if err != nil {
		return nil, &StoreError{Op: "stats", Err: err}
	}
	if s.TotalFrames > 0 {
		avg := float64(s.TotalStock) / float64(s.TotalFrames)
		s.AvgStockPerItem = &avg
	}
	return s, nil
}

// Count returns the total record count and the top material buckets.
func (e *Engine) Count(ctx context.Context) (total int64, materials []MaterialCount, err error) {
	defer e.observe(ctx, "count", time.Now(), &err)

	total, err = e.store.Count(ctx)
	if err != nil {
		return 0, nil, &StoreError{Op: "count", Err: err}
	}
	materials, err = e.store.MaterialCounts(ctx, 5)
	if err != nil {
		return 0, nil, &StoreError{Op: "material counts", Err: err}
	}
	return total, materials, nil
}

// Duplicates lists matching-key collisions for manual reconciliation.
func (e *Engine) Duplicates(ctx context.Context) (groups []DuplicateGroup, err error) {
	defer e.observe(ctx, "duplicates", time.Now(), &err)

	groups, err = e.store.Duplicates(ctx, 20)
	if err != nil {
		return nil, &StoreError{Op: "duplicates", Err: err}
	}
	return groups, nil
}

func (e *Engine) clamp(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > e.maxRows {
		return e.maxRows
	}
	return limit
}

// observe records the operation metric and logs failures that are not
// plain business-rule rejections.
func (e *Engine) observe(ctx context.Context, op string, start time.Time, err *error) {
	status := classify(*err)
	metrics.RecordOperation(op, status, time.Since(start))
	if status == "store_error" {
		logging.FromContext(ctx).Error("store operation failed", "op", op, "error", *err)
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isA[*ValidationError](err):
		return "validation_error"
	case isA[*NotFoundError](err):
		return "not_found"
	case isA[*InvalidArgumentError](err):
		return "invalid_argument"
	default:
		return "store_error"
	}
}

func isA[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
