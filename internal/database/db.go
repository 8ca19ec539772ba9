package database

import (
	"fmt"

	"diner/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to the receipt database and migrates its schema
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// every new connection to ":memory:" would see an empty database
		db.DB().SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the receipt tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Receipt{}, &models.ReceiptLine{}).Error; err != nil {
		return fmt.Errorf("migrate receipts: %w", err)
	}
	return nil
}
