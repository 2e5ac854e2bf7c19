package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// insertChunk keeps multi-row inserts well under MySQL's placeholder limit
// (23 params per row).
const insertChunk = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// InsertBatch writes the batch header and all rows in one transaction and
// sets b.ID from the header insert.
func (r *Repo) InsertBatch(ctx context.Context, b *domain.Batch) error {
	srcs, _ := json.Marshal(b.Sources)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, insertBatchSQL, b.Location, string(srcs), b.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for start := 0; start < len(b.Rows); start += insertChunk {
		end := start + insertChunk
		if end > len(b.Rows) {
			end = len(b.Rows)
		}
		if err := insertListings(ctx, tx, id, b.Rows[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.ID = id
	return nil
}

func insertListings(ctx context.Context, tx *sql.Tx, batchID int64, rows []domain.CanonicalListing) error {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*23)
	for _, l := range rows {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		var priceCat, sizeCat any
		if l.PriceCategory != nil {
			priceCat = string(*l.PriceCategory)
		}
		if l.SizeCategory != nil {
			sizeCat = string(*l.SizeCategory)
		}
		args = append(args,
			batchID,
			l.Source,
			valStr(l.Address),
			valStr(l.City),
			valStr(l.State),
			valStr(l.Zip),
			valF64(l.Price),
			valF64(l.Bedrooms),
			valF64(l.Bathrooms),
			valF64(l.AreaSqFt),
			string(l.PropertyType),
			valStr(l.URL),
			valF64(l.PricePerSqFt),
			priceCat,
			sizeCat,
			valF64(l.BedBathRatio),
			l.PriceOutlier,
			l.AreaOutlier,
			valInt(l.ValueScore),
			string(l.InvestmentRating),
			l.QualityScore,
			string(l.QualityCategory),
			l.ValidatedAt,
		)
	}
	_, err := tx.ExecContext(ctx, insertListingsPrefix+strings.Join(values, ","), args...)
	return err
}

// GetBatch reads one delivered batch with its rows in insert order.
func (r *Repo) GetBatch(ctx context.Context, id int64) (domain.Batch, error) {
	var b domain.Batch
	var srcs []byte
	err := r.db.QueryRowContext(ctx, getBatchSQL, id).Scan(&b.ID, &b.Location, &srcs, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Batch{}, domain.ErrBatchNotFound
	}
	if err != nil {
		return domain.Batch{}, err
	}
	if len(srcs) > 0 {
		_ = json.Unmarshal(srcs, &b.Sources)
	}

	rows, err := r.db.QueryContext(ctx, getListingsSQL, id)
	if err != nil {
		return domain.Batch{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.CanonicalListing
		var address, city, state, zip, url, priceCat, sizeCat sql.NullString
		var price, beds, baths, area, ppa, ratio sql.NullFloat64
		var valueScore sql.NullInt64
		var ptype, rating, qualityCat string

		if err := rows.Scan(
			&l.Source, &address, &city, &state, &zip,
			&price, &beds, &baths, &area,
			&ptype, &url, &ppa, &priceCat, &sizeCat, &ratio,
			&l.PriceOutlier, &l.AreaOutlier, &valueScore,
			&rating, &l.QualityScore, &qualityCat, &l.ValidatedAt,
		); err != nil {
			return domain.Batch{}, err
		}

		l.Address = ptrStr(address)
		l.City = ptrStr(city)
		l.State = ptrStr(state)
		l.Zip = ptrStr(zip)
		l.URL = ptrStr(url)
		l.Price = ptrF64(price)
		l.Bedrooms = ptrF64(beds)
		l.Bathrooms = ptrF64(baths)
		l.AreaSqFt = ptrF64(area)
		l.PricePerSqFt = ptrF64(ppa)
		l.BedBathRatio = ptrF64(ratio)
		l.PropertyType = domain.PropertyType(ptype)
		l.InvestmentRating = domain.InvestmentRating(rating)
		l.QualityCategory = domain.QualityCategory(qualityCat)
		if priceCat.Valid {
			c := domain.PriceCategory(priceCat.String)
			l.PriceCategory = &c
		}
		if sizeCat.Valid {
			c := domain.SizeCategory(sizeCat.String)
			l.SizeCategory = &c
		}
		if valueScore.Valid {
			v := int(valueScore.Int64)
			l.ValueScore = &v
		}

		b.Rows = append(b.Rows, l)
	}
	return b, rows.Err()
}

func ptrStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func ptrF64(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
