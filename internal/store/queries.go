package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/optiframe/optiframe/internal/inventory"
)

// Get resolves a frame by id outside any unit of work.
func (s *Store) Get(ctx context.Context, id int64) (*inventory.Frame, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+frameCols+` FROM frames WHERE id = $1`, id)
	return scanFrame(row)
}

// buildWhere turns sparse criteria into a WHERE clause with positional
// arguments. Text criteria become ILIKE substring matches, mirroring the
// in-core Criteria.Matches predicate.
func buildWhere(c inventory.Criteria) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	text := func(col string, v *string) {
		if v != nil {
			conds = append(conds, col+" ILIKE "+arg("%"+*v+"%"))
		}
	}
	text("brand", c.Brand)
	text("model_code", c.ModelCode)
	text("material", c.Material)
	text("color", c.Color)
	text("shape", c.Shape)
	text("gender", c.Gender)

	if c.LensWidth != nil {
		conds = append(conds, "lens_width = "+arg(*c.LensWidth))
	}
	if c.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*c.MinPrice))
	}
	if c.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*c.MaxPrice))
	}
	if c.MaxStock != nil {
		conds = append(conds, "stock <= "+arg(*c.MaxStock))
	}
	if c.BrandExact != nil {
		conds = append(conds, "lower(coalesce(brand, '')) = lower("+arg(*c.BrandExact)+")")
	}
	if c.Since != nil {
		conds = append(conds, "created_at >= "+arg(*c.Since))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(order inventory.Order) string {
	switch order {
	case inventory.OrderIDAscending:
		return " ORDER BY id ASC"
	case inventory.OrderModelAscending:
		return " ORDER BY model_code ASC, id ASC"
	case inventory.OrderStockAscending:
		return " ORDER BY stock ASC, id ASC"
	default:
		return " ORDER BY created_at DESC, id DESC"
	}
}

// Search returns up to limit frames matching the criteria in the
// requested order.
func (s *Store) Search(ctx context.Context, c inventory.Criteria, limit int, order inventory.Order) ([]inventory.Frame, error) {
	where, args := buildWhere(c)
	args = append(args, limit)
	q := `SELECT ` + frameCols + ` FROM frames` + where + orderClause(order) +
		fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.Frame
	for rows.Next() {
		var f inventory.Frame
		err := rows.Scan(
			&f.ID, &f.Brand, &f.ModelCode, &f.Material, &f.LensWidth,
			&f.BridgeSize, &f.TempleLength, &f.Color, &f.Shape, &f.Gender,
			&f.Price, &f.Stock, &f.Notes, &f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the total number of frames.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM frames`).Scan(&n)
	return n, err
}

// MaterialCounts returns the top material buckets by record count.
func (s *Store) MaterialCounts(ctx context.Context, top int) ([]inventory.MaterialCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT material, count(*) AS c
		FROM frames
		GROUP BY material
		ORDER BY c DESC, material ASC
		LIMIT $1`, top)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.MaterialCount
	for rows.Next() {
		var mc inventory.MaterialCount
		if err := rows.Scan(&mc.Material, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// Duplicates lists (brand, model_code) pairs with more than one record,
// most duplicated first.
func (s *Store) Duplicates(ctx context.Context, limit int) ([]inventory.DuplicateGroup, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT brand, model_code, count(*) AS c
		FROM frames
		GROUP BY brand, model_code
		HAVING count(*) > 1
		ORDER BY c DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.DuplicateGroup
	for rows.Next() {
		var g inventory.DuplicateGroup
		if err := rows.Scan(&g.Brand, &g.ModelCode, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Stats computes the aggregate report in SQL. Top-brand ties resolve by
// the secondary ordering on the brand key, which keeps results
// deterministic for a given dataset without promising a contractual
// tie-break.
func (s *Store) Stats(ctx context.Context) (*inventory.Stats, error) {
	st := &inventory.Stats{}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(DISTINCT brand),
		       avg(price),
		       coalesce(sum(stock), 0)
		FROM frames`).Scan(&st.TotalFrames, &st.DistinctBrands, &st.AvgPrice, &st.TotalStock)
	if err != nil {
		return nil, err
	}
	if st.TotalFrames == 0 {
		return st, nil
	}

	var tally inventory.BrandTally
	err = s.pool.QueryRow(ctx, `
		SELECT coalesce(brand, ''), count(*) AS c
		FROM frames
		GROUP BY brand
		ORDER BY c DESC, lower(coalesce(brand, '')) ASC
		LIMIT 1`).Scan(&tally.Brand, &tally.Count)
	if err != nil {
		return nil, err
	}
	st.TopBrandByCount = &tally

	var stockTally inventory.BrandTally
	err = s.pool.QueryRow(ctx, `
		SELECT coalesce(brand, ''), coalesce(sum(stock), 0) AS units
		FROM frames
		GROUP BY brand
		ORDER BY units DESC, lower(coalesce(brand, '')) ASC
		LIMIT 1`).Scan(&stockTally.Brand, &stockTally.Count)
	if err != nil {
		return nil, err
	}
	st.TopBrandByStock = &stockTally

	return st, nil
}
