package db

import (
	"fmt"
	"time"

	"loan-origination-api/internal/config"
	"loan-origination-api/internal/domain/loan"

	mysqldrv "github.com/go-sql-driver/mysql"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver for DB_DRIVER.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	case config.DriverMySQL:
		dsn, err := mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// mysqlDSN forces parseTime so DATE columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql DB_DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func OpenGorm(driver, dsn string, debug bool) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return OpenGormWithDialector(dial, level)
}

// OpenGormWithDialector opens, tunes the pool and pings.
func OpenGormWithDialector(dial gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dial.Name() == "sqlite" {
		// one writer at a time; also keeps :memory: databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(30)
		sqlDB.SetMaxIdleConns(10)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Migrate creates the loans table if it is missing. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&loan.Loan{}); err != nil {
		return fmt.Errorf("migrate loans: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
