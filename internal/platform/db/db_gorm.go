// Package db はGORMの接続・リトライ・マイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authadapters "pricing_backend/internal/feature/auth/adapters"
	authentity "pricing_backend/internal/feature/auth/domain/entity"
	productadapters "pricing_backend/internal/feature/product/adapters"
	"pricing_backend/internal/platform/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// retryInterval は接続リトライの間隔です。
	retryInterval = 3 * time.Second
	// connectTimeout は起動時に接続を待つ上限です。
	connectTimeout = 60 * time.Second
)

// Config はデータベース接続設定です。
type Config struct {
	Driver        string
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	SQLitePath    string
	RunMigrations bool
}

// LoadConfig は環境変数からデータベース設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Driver:        config.GetEnv("DB_DRIVER", DriverPostgres),
		Host:          config.GetEnv("DB_HOST", "localhost"),
		Port:          config.GetEnv("DB_PORT", "5432"),
		User:          config.GetEnv("DB_USER", ""),
		Password:      config.GetEnv("DB_PASSWORD", ""),
		Name:          config.GetEnv("DB_NAME", ""),
		SSLMode:       config.GetEnv("DB_SSLMODE", "disable"),
		SQLitePath:    config.GetEnv("SQLITE_PATH", "./pricing.db"),
		RunMigrations: config.GetBool("RUN_MIGRATIONS", false),
	}
}

// BuildDSN はPostgreSQL用のキー=値形式DSNを組み立てます。
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// Opener はDSNからGORMの接続を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// gormConfig はエラー変換（gorm.ErrDuplicatedKey など）を有効にした共通設定です。
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// Open は設定に従ってデータベースへ接続し、必要ならマイグレーションを実行します。
func Open(cfg Config) (*gorm.DB, error) {
	var (
		dsn    string
		opener Opener
	)
	switch cfg.Driver {
	case DriverPostgres:
		dsn = BuildDSN(cfg)
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormConfig())
		}
	case DriverSQLite:
		// mattn/go-sqlite3 は外部キー制約をDSNで有効化する
		dsn = cfg.SQLitePath
		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=on"
		} else {
			dsn += "?_foreign_keys=on"
		}
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormConfig())
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := ConnectWithRetry(dsn, connectTimeout, opener)
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "driver", cfg.Driver)

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		slog.Info("database migrated")
	}
	return db, nil
}

// Migrate はすべてのテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&authentity.User{},
		&authadapters.SessionModel{},
		&productadapters.ProductModel{},
		&productadapters.EstimationModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
