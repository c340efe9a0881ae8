package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sjperalta/payroll-ledger-api/internal/models"
	pkgLogger "github.com/sjperalta/payroll-ledger-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// sqliteDSN turns a "sqlite://path" URL into a go-sqlite3 DSN with foreign keys
// enforced and a busy timeout, keeping any query options already on the path.
func sqliteDSN(databaseURL string) string {
	dsn := strings.TrimPrefix(databaseURL, sqlitePrefix)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Connect establishes a connection to the database named by databaseURL.
// A "sqlite://path" URL opens a local SQLite file; anything else is treated as a PostgreSQL DSN.
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	isSQLite := strings.HasPrefix(databaseURL, sqlitePrefix)

	var dialector gorm.Dialector
	if isSQLite {
		dialector = sqlite.Open(sqliteDSN(databaseURL))
	} else {
		dialector = postgres.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // Writes that must be atomic open their own transaction
		PrepareStmt:            !isSQLite,
		TranslateError:         true, // Unique violations surface as gorm.ErrDuplicatedKey
		// The employees table belongs to the HR directory
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	if isSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the ledger tables. The employees table is only
// created when missing so an existing HR directory schema is left alone.
func Migrate(db *gorm.DB) error {
	if !db.Migrator().HasTable(&models.Employee{}) {
		if err := db.AutoMigrate(&models.Employee{}); err != nil {
			return fmt.Errorf("failed to migrate employees: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.AdjustmentEntry{},
		&models.AdjustmentEntryLine{},
		&models.DefaultTemplate{},
		&models.DefaultTemplateLine{},
	); err != nil {
		return fmt.Errorf("failed to migrate ledger tables: %w", err)
	}
	return nil
}
