// Package postgres implements every domain repository against a single
// gorm.DB connection, following the teacher's cmd/seed connectDB pattern
// generalized into a reusable, pool-tuned wrapper.
package postgres

import (
	"fmt"

	"github.com/brandwatch/collector/config"
	"github.com/brandwatch/collector/internal/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database wraps a *gorm.DB connection along with the pool settings applied
// at open time.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a Postgres connection per cfg and tunes its pool.
func NewDatabase(cfg config.DatabaseConfig, debug bool) (*Database, error) {
	gormLogLevel := gormlogger.Warn
	if debug {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Database{DB: db}, nil
}

// AutoMigrate creates or updates every collector table. It is additive only;
// it never drops columns or tables, matching the teacher's migration posture.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&entity.Brand{},
		&entity.BrandSource{},
		&entity.MonitoredDomain{},
		&entity.Ad{},
		&entity.BatchRun{},
		&entity.DailyBrandStats{},
		&entity.ActivityLog{},
	)
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
