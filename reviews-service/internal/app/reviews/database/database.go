package database

import (
	"fmt"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/reviews-service/internal/app/reviews/config"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	Attempts   int                 // Количество попыток подключения
	RetryDelay time.Duration       // Пауза между попытками
	LogLevel   gormlogger.LogLevel // Уровень SQL логов gorm
}

func DefaultOptions() Options {
	return Options{
		Attempts:   10,
		RetryDelay: 3 * time.Second,
		LogLevel:   gormlogger.Warn,
	}
}

func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return OpenWithOptions(cfg, DefaultOptions())
}

// OpenWithOptions подключается к БД с повторными попытками, пока база поднимается
func OpenWithOptions(cfg config.DatabaseConfig, opts Options) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(opts.LogLevel),
		NamingStrategy: NamingStrategy{},
	}

	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			if err = configurePool(db, cfg.Driver); err == nil {
				return db, nil
			}
		}
		logger.Warn().
			Int("attempt", i+1).
			Str("driver", cfg.Driver).
			Err(err).
			Msg("Failed to connect to database, retrying...")
		if i < attempts-1 {
			time.Sleep(opts.RetryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

// Dialector выбирает gorm драйвер по имени из конфигурации
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedDriver, cfg.Driver)
	}
}

func configurePool(db *gorm.DB, driver string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Ping(); err != nil {
		return err
	}

	if driver == config.DriverSQLite {
		// sqlite не допускает параллельной записи
		sqlDB.SetMaxOpenConns(1)
		return nil
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

// Migrate создает таблицы customers, items, reviews с внешними ключами
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Customer{}, &entity.Item{}, &entity.Review{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
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
