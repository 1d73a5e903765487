package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS store_settings (
		id INTEGER PRIMARY KEY,
		shop TEXT UNIQUE NOT NULL,
		vendor TEXT DEFAULT '',
		language TEXT DEFAULT 'English',
		region TEXT DEFAULT 'United States',
		inventory_quantity INTEGER DEFAULT 100,
		inventory_policy TEXT DEFAULT 'deny',
		retail_price_multiplier REAL DEFAULT 1,
		retail_price_manual BOOLEAN DEFAULT false,
		compare_at_price_multiplier REAL DEFAULT 0,
		compare_at_price_manual BOOLEAN DEFAULT false,
		price_rounding TEXT DEFAULT '.99',
		product_status TEXT DEFAULT 'DRAFT',
		charge_vat BOOLEAN DEFAULT false,
		optimize_alt_text BOOLEAN DEFAULT false,
		variant_pricing BOOLEAN DEFAULT false,
		generate_tags BOOLEAN DEFAULT false,
		generate_product_type BOOLEAN DEFAULT false,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS prompt_templates (
		id INTEGER PRIMARY KEY,
		shop TEXT NOT NULL,
		name TEXT NOT NULL,
		title_prompt TEXT DEFAULT '',
		description_prompt TEXT DEFAULT '',
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS negative_words (
		id INTEGER PRIMARY KEY,
		shop TEXT NOT NULL,
		word TEXT NOT NULL,
		created_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS import_batches (
		id TEXT PRIMARY KEY,
		shop TEXT NOT NULL,
		status TEXT DEFAULT 'pending',
		total_products INTEGER DEFAULT 0,
		imported_products INTEGER DEFAULT 0,
		failed_products INTEGER DEFAULT 0,
		source_urls TEXT DEFAULT '[]',
		settings_snapshot TEXT DEFAULT '{}',
		created_at TIMESTAMP,
		completed_at TIMESTAMP
	);
	`

	err = db.Exec(createTablesSQL).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
