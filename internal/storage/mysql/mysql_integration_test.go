//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/hearthstone-io/hearthscout/internal/domain"
	mysqlrepo "github.com/hearthstone-io/hearthscout/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestRepo_MySQL_InsertAndReadBatch(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=hearthscout",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "hearthscout")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	priceCat := domain.PriceLuxury
	sizeCat := domain.SizeMedium
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Arrange: one fully populated row and one sparse synthetic row, in a
	// deliberate order so read-back ordering can be asserted.
	batch := domain.Batch{
		Location:  "Seattle, WA",
		Sources:   []string{"zillow", "realtor"},
		CreatedAt: stamp,
		Rows: []domain.CanonicalListing{
			{
				Source:           "Zillow",
				Address:          pstr("123 Pine St, Seattle, WA 98101"),
				City:             pstr("Seattle"),
				State:            pstr("WA"),
				Zip:              pstr("98101"),
				Price:            pfloat(1200000),
				Bedrooms:         pfloat(3),
				Bathrooms:        pfloat(2.5),
				AreaSqFt:         pfloat(1800),
				PropertyType:     domain.House,
				URL:              pstr("https://www.zillow.com/homedetails/1"),
				PricePerSqFt:     pfloat(1200000.0 / 1800),
				PriceCategory:    &priceCat,
				SizeCategory:     &sizeCat,
				BedBathRatio:     pfloat(1.2),
				PriceOutlier:     true,
				ValueScore:       pint(62),
				InvestmentRating: domain.RatingAverage,
				QualityScore:     100,
				QualityCategory:  domain.QualityExcellent,
				ValidatedAt:      stamp,
			},
			{
				Source:           "Realtor (Sample)",
				City:             pstr("Seattle"),
				PropertyType:     domain.UnknownType,
				InvestmentRating: domain.RatingUnknown,
				QualityScore:     10,
				QualityCategory:  domain.QualityPoor,
				ValidatedAt:      stamp,
			},
		},
	}

	if err := repo.InsertBatch(ctx, &batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if batch.ID == 0 {
		t.Fatal("InsertBatch did not set the batch ID")
	}

	got, err := repo.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}

	if got.Location != "Seattle, WA" || len(got.Sources) != 2 || got.Sources[0] != "zillow" {
		t.Fatalf("batch header: %+v", got)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows: %d", len(got.Rows))
	}

	full := got.Rows[0]
	if full.Source != "Zillow" || full.Address == nil || *full.Address != "123 Pine St, Seattle, WA 98101" {
		t.Fatalf("full row identity: %+v", full)
	}
	if full.Price == nil || *full.Price != 1200000 || full.Bathrooms == nil || *full.Bathrooms != 2.5 {
		t.Fatalf("full row numerics: %+v", full)
	}
	if full.PriceCategory == nil || *full.PriceCategory != domain.PriceLuxury {
		t.Fatalf("price category: %v", full.PriceCategory)
	}
	if !full.PriceOutlier || full.AreaOutlier {
		t.Fatalf("outlier flags: %v %v", full.PriceOutlier, full.AreaOutlier)
	}
	if full.ValueScore == nil || *full.ValueScore != 62 {
		t.Fatalf("value score: %v", full.ValueScore)
	}
	if !full.ValidatedAt.Equal(stamp) {
		t.Fatalf("validated_at: %v", full.ValidatedAt)
	}

	sparse := got.Rows[1]
	if sparse.Price != nil || sparse.Address != nil || sparse.ValueScore != nil {
		t.Fatalf("sparse row must read back as nils: %+v", sparse)
	}
	if sparse.Source != "Realtor (Sample)" || sparse.QualityCategory != domain.QualityPoor {
		t.Fatalf("sparse row: %+v", sparse)
	}

	// Unknown batch IDs surface the sentinel.
	if _, err := repo.GetBatch(ctx, batch.ID+100); err != domain.ErrBatchNotFound {
		t.Fatalf("missing batch err: %v", err)
	}
}
