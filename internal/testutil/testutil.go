package testutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"factory-backend/internal/database"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	dbSeq atomic.Int64
)

var tables = []string{
	"audit_logs", "shipment_items", "shipments", "counterparties",
	"finished_goods_stocks", "batch_sequences", "batches", "product_materials",
	"material_stocks", "materials", "products", "lines", "users",
}

func Logger(tb testing.TB) *logrus.Logger {
	tb.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	}
}

// DB returns an empty, migrated database. By default each call gets its own
// in-memory sqlite database on a single connection, so transactions run one at
// a time. Set TEST_POSTGRES_DSN to run against Postgres instead; tables are
// truncated between calls.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return postgresDB(tb, dsn)
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, Logger(tb)); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// PostgresDB is DB restricted to Postgres, for tests that need real row locks
// and concurrent connections. It skips unless TEST_POSTGRES_DSN is set.
func PostgresDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("TEST_POSTGRES_DSN not set")
	}
	return postgresDB(tb, dsn)
}

func postgresDB(tb testing.TB, dsn string) *gorm.DB {
	tb.Helper()
	pgOnce.Do(func() {
		pgDB, pgErr = gorm.Open(postgres.Open(dsn), gormConfig())
		if pgErr != nil {
			return
		}
		pgErr = database.Migrate(pgDB, Logger(tb))
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	stmt := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if err := pgDB.Exec(stmt).Error; err != nil {
		tb.Fatalf("truncate: %v", err)
	}
	return pgDB
}
