package mysql

const insertBatchSQL = `
INSERT INTO batches (location, sources, created_at)
VALUES (?, ?, ?)
`

const insertListingsPrefix = "INSERT INTO listings\n" +
	"  (batch_id, source, address, city, state, zip, price, bedrooms, bathrooms, area_sqft,\n" +
	"   property_type, url, price_per_sqft, price_category, size_category, bed_bath_ratio,\n" +
	"   price_outlier, area_outlier, value_score, investment_rating, quality_score,\n" +
	"   quality_category, validated_at)\nVALUES "

const getBatchSQL = `
SELECT id, location, sources, created_at
FROM batches
WHERE id = ?
`

// Rows come back in insert order so a delivered batch reads back exactly as
// it was written.
const getListingsSQL = `
SELECT
  source, address, city, state, zip, price, bedrooms, bathrooms, area_sqft,
  property_type, url, price_per_sqft, price_category, size_category,
  bed_bath_ratio, price_outlier, area_outlier, value_score,
  investment_rating, quality_score, quality_category, validated_at
FROM listings
WHERE batch_id = ?
ORDER BY id
`
