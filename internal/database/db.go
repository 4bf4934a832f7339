package database

import (
	"fmt"
	"log/slog"
	"time"

	"engagement-pulse/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open подключается к БД с несколькими попытками (контейнер с postgres
// может подняться позже приложения) и прогоняет миграции.
func Open(driver, dsn string, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to DB", "driver", driver, "attempt", i, "max_attempts", maxAttempts)

		db, err = gorm.Open(dialector, cfg)
		if err == nil {
			log.Info("connected to DB")
			break
		}

		log.Warn("failed to connect to DB", "error", err)
		if driver == DriverSQLite {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to db after retries: %w", err)
	}

	if driver != DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт таблицы и индексы, в том числе уникальные индексы
// (engagement_id, week_start_date) и активного консультанта.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Engagement{},
		&models.WeeklyPulse{},
		&models.Milestone{},
		&models.Risk{},
		&models.Issue{},
		&models.Contact{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close закрывает пул соединений.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
