package db

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/entity"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

var ErrUnsupportedDriver = errors.New("unsupported db driver")

func InitDB() error {
	if config.AppConfig == nil {
		return errors.New("app config is not initialized")
	}

	db, err := Open(config.AppConfig.DB)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Open 按 driver 建立连接并补齐缺失的表
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf(
			"connect %s failed (host=%s port=%d db=%s user=%s): %w",
			cfg.Driver, cfg.Host, cfg.Port, cfg.DBName, cfg.User, err,
		)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB failed: %w", err)
	}
	if isSQLite(cfg.Driver) {
		// 内存库每个连接都是独立的库
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s ping failed: %w", cfg.Driver, err)
	}

	if err := ensureTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

func isSQLite(driver string) bool {
	return strings.EqualFold(strings.TrimSpace(driver), "sqlite")
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)

	switch driver {
	case "postgres", "postgresql":
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
				cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
			)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		if dsn == "" {
			loc := url.QueryEscape("UTC")
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s&timeout=5s&readTimeout=10s&writeTimeout=10s",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, loc,
			)
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		if dsn == "" {
			dsn = "data/vault.db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}

func ensureTables(db *gorm.DB) error {
	models := []interface{}{
		&entity.Image{},
		&entity.ImageMetric{},
	}

	for _, m := range models {
		if db.Migrator().HasTable(m) {
			continue
		}
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrate missing table failed: %w", err)
		}
	}

	return nil
}
