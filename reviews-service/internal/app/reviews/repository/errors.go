package repository

import (
	"errors"
	"fmt"

	"shopreviews/pkg/metrics"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const serviceName = "reviews-service"

// Коды ошибок драйверов для нарушений ограничений
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"

	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
	mysqlDuplicateEntry  = 1062
)

// translateError приводит ошибки postgres, mysql и sqlite к ErrForeignKey и ErrDuplicateKey.
// Исходная ошибка остается в цепочке
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
	}

	return err
}

// notFound подменяет gorm.ErrRecordNotFound ошибкой конкретной сущности
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// observe закрывает таймер запроса. Отсутствие записи ошибкой БД не считается
func observe(timer *metrics.DbTimer, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	timer.Done(err)
}
