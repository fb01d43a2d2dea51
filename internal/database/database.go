// Package database handles connection setup and migrations.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"plume/internal/config"
	"plume/internal/models"
)

// DB is the shared database handle.
var DB *gorm.DB

// Connect opens the configured database and runs migrations outside of
// production. Postgres is the deployment driver; sqlite exists for local
// hacking and tests.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewSlogGormLogger(gormlogger.Warn, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing underlying connection pool: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// in-memory sqlite loses state across connections
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	DB = db
	return db, nil
}

// Migrate applies schema migrations for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
