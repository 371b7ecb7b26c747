// Package store implements the Record Store adapter on PostgreSQL via
// pgx. It owns physical storage and transactional atomicity; the
// inventory engine owns the policy of when and how records change.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optiframe/optiframe/internal/config"
	"github.com/optiframe/optiframe/internal/inventory"
)

// Store is the pgx-backed implementation of inventory.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ inventory.Store = (*Store)(nil)

// New connects a pool using the database configuration and verifies the
// connection with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports connectivity, for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	brand         TEXT,
	model_code    TEXT NOT NULL,
	material      TEXT NOT NULL DEFAULT 'unknown',
	lens_width    INT,
	bridge_size   INT,
	temple_length INT,
	color         TEXT,
	shape         TEXT,
	gender        TEXT,
	price         DOUBLE PRECISION,
	stock         INT NOT NULL DEFAULT 0,
	notes         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_frames_brand ON frames (lower(brand));
CREATE INDEX IF NOT EXISTS idx_frames_model ON frames (lower(model_code));
CREATE INDEX IF NOT EXISTS idx_frames_created_at ON frames (created_at);
`

// Bootstrap creates the frames table and indexes if missing. With drop
// set, the table is removed first.
//
// The case-insensitive unique index over (brand, model_code) is
// advisory: it is installed only when no duplicate pairs exist, so
// legacy duplicates are left to manual reconciliation via merge.
func (s *Store) Bootstrap(ctx context.Context, drop bool) error {
	if drop {
		if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS frames`); err != nil {
			return fmt.Errorf("drop frames: %w", err)
		}
	}
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var hasDupes bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM frames
			GROUP BY lower(coalesce(brand, '')), lower(model_code)
			HAVING count(*) > 1
		)`).Scan(&hasDupes)
	if err != nil {
		return fmt.Errorf("check duplicates: %w", err)
	}

	if hasDupes {
		slog.Warn("skipping unique index; duplicate (brand, model_code) pairs exist, reconcile with merge")
		return nil
	}
	_, err = s.pool.Exec(ctx, `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_frames_brand_model
		ON frames (lower(coalesce(brand, '')), lower(model_code))`)
	if err != nil {
		// Concurrent inserts may have produced a duplicate between the
		// check and the create; leave reconciliation to the operator.
		slog.Warn("could not create unique index", "error", err)
	}
	return nil
}

// WithTx runs fn inside a single database transaction, rolling back on
// any error.
func (s *Store) WithTx(ctx context.Context, fn func(tx inventory.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer pgtx.Rollback(ctx)

	if err := fn(&txn{tx: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// txn adapts a pgx transaction to the inventory.Tx surface.
type txn struct {
	tx pgx.Tx
}

var _ inventory.Tx = (*txn)(nil)

const frameCols = `id, brand, model_code, material, lens_width, bridge_size,
	temple_length, color, shape, gender, price, stock, notes, created_at`

func scanFrame(row pgx.Row) (*inventory.Frame, error) {
	var f inventory.Frame
	err := row.Scan(
		&f.ID, &f.Brand, &f.ModelCode, &f.Material, &f.LensWidth,
		&f.BridgeSize, &f.TempleLength, &f.Color, &f.Shape, &f.Gender,
		&f.Price, &f.Stock, &f.Notes, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (t *txn) Get(ctx context.Context, id int64) (*inventory.Frame, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+frameCols+` FROM frames WHERE id = $1`, id)
	return scanFrame(row)
}

// FindByKey serializes concurrent units of work on the same matching key
// with a transaction-scoped advisory lock, then resolves the key
// case-insensitively. The lock closes the race where two upserts for a
// brand-new key both decide to create.
func (t *txn) FindByKey(ctx context.Context, key inventory.MatchKey) (*inventory.Frame, error) {
	_, err := t.tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		key.Brand+"\x1f"+key.Model)
	if err != nil {
		return nil, fmt.Errorf("advisory lock: %w", err)
	}

	row := t.tx.QueryRow(ctx, `
		SELECT `+frameCols+` FROM frames
		WHERE lower(coalesce(brand, '')) = $1 AND lower(model_code) = $2
		ORDER BY id
		LIMIT 1`, key.Brand, key.Model)
	return scanFrame(row)
}

func (t *txn) Insert(ctx context.Context, f *inventory.Frame) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO frames (brand, model_code, material, lens_width, bridge_size,
			temple_length, color, shape, gender, price, stock, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		f.Brand, f.ModelCode, f.Material, f.LensWidth, f.BridgeSize,
		f.TempleLength, f.Color, f.Shape, f.Gender, f.Price, f.Stock,
		f.Notes, f.CreatedAt,
	).Scan(&f.ID)
}

func (t *txn) Update(ctx context.Context, f *inventory.Frame) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE frames SET
			brand = $2, model_code = $3, material = $4, lens_width = $5,
			bridge_size = $6, temple_length = $7, color = $8, shape = $9,
			gender = $10, price = $11, stock = $12, notes = $13
		WHERE id = $1`,
		f.ID, f.Brand, f.ModelCode, f.Material, f.LensWidth, f.BridgeSize,
		f.TempleLength, f.Color, f.Shape, f.Gender, f.Price, f.Stock, f.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("frame %d vanished during update", f.ID)
	}
	return nil
}

func (t *txn) Delete(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM frames WHERE id = $1`, id)
	return err
}
