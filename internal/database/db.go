package database

import (
	"fmt"
	"time"

	"factory-backend/internal/config"
	"factory-backend/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the Postgres connection, migrates the schema and sets DB.
func Init(cfg *config.Config, log *logrus.Logger) error {
	db, err := Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := Migrate(db, log); err != nil {
		return err
	}
	DB = db
	return nil
}

func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Line{},
		&models.Product{},
		&models.Material{},
		&models.MaterialStock{},
		&models.ProductMaterial{},
		&models.Batch{},
		&models.BatchSequence{},
		&models.FinishedGoodsStock{},
		&models.Counterparty{},
		&models.Shipment{},
		&models.ShipmentItem{},
		&models.AuditLog{},
	}
}

type checkConstraint struct {
	table string
	name  string
	expr  string
}

// Quantity floors the ledger relies on. The service checks them first; the
// constraints catch anything that bypasses it.
var checkConstraints = []checkConstraint{
	{"material_stocks", "chk_material_stocks_quantity", "quantity >= 0"},
	{"batches", "chk_batches_quantity", "quantity >= 0"},
	{"finished_goods_stocks", "chk_finished_goods_stocks_quantity", "quantity >= 0"},
	{"product_materials", "chk_product_materials_quantity", "quantity > 0"},
	{"shipments", "chk_shipments_quantity", "quantity > 0"},
	{"shipment_items", "chk_shipment_items_quantity", "quantity > 0"},
}

func Migrate(db *gorm.DB, log logrus.FieldLogger) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, cc := range checkConstraints {
		var exists bool
		if err := db.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.table_constraints
				WHERE table_name = ?
				AND constraint_name = ?
			)
		`, cc.table, cc.name).Scan(&exists).Error; err != nil {
			return fmt.Errorf("inspect constraint %s: %w", cc.name, err)
		}
		if exists {
			continue
		}
		log.WithField("constraint", cc.name).Info("adding check constraint")
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", cc.table, cc.name, cc.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", cc.name, err)
		}
	}
	return nil
}
