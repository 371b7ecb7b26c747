package inventory

import "context"

// Store is the persistence contract the engine drives. Implementations
// must provide per-operation transactional atomicity: everything inside
// one WithTx call either lands completely or not at all.
//
// Lookups return (nil, nil) for a missing record; the engine converts
// that into a NotFoundError at its boundary.
type Store interface {
	// WithTx runs fn inside a single atomic unit of work. The
	// read-then-write sequences of upsert and merge execute entirely
	// within one such unit, and implementations must serialize
	// concurrent units touching the same matching key.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Get(ctx context.Context, id int64) (*Frame, error)
	Search(ctx context.Context, c Criteria, limit int, order Order) ([]Frame, error)

	Count(ctx context.Context) (int64, error)
	MaterialCounts(ctx context.Context, top int) ([]MaterialCount, error)
	Duplicates(ctx context.Context, limit int) ([]DuplicateGroup, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Tx is the record surface available inside a unit of work.
type Tx interface {
	Get(ctx context.Context, id int64) (*Frame, error)
	// FindByKey resolves a matching key to its record, case-insensitive
	// on both components. Implementations serialize concurrent callers
	// on the same key for the remainder of the unit of work, so two
	// upserts for a brand-new key cannot both take the create path.
	FindByKey(ctx context.Context, key MatchKey) (*Frame, error)
	Insert(ctx context.Context, f *Frame) error
	Update(ctx context.Context, f *Frame) error
	Delete(ctx context.Context, id int64) error
}

// MaterialCount is one bucket of the material distribution.
type MaterialCount struct {
	Material string
	Count    int64
}

// DuplicateGroup is a (brand, model) pair that resolves to more than one
// record — the advisory uniqueness intent has been violated and the pair
// is a candidate for an explicit merge.
type DuplicateGroup struct {
	Brand     *string
	ModelCode string
	Count     int64
}

// BrandTally pairs a brand with a count of frames or stock units. An
// empty brand is the NoBrand bucket.
type BrandTally struct {
	Brand string
	Count int64
}

// Stats is the aggregate report over the whole record set. Averages are
// nil when undefined (no records, or no priced records) rather than
// zero, so renderers can show an explicit unavailable marker.
type Stats struct {
	TotalFrames     int64
	DistinctBrands  int64
	AvgPrice        *float64
	TotalStock      int64
	TopBrandByCount *BrandTally
	TopBrandByStock *BrandTally
	AvgStockPerItem *float64
}
