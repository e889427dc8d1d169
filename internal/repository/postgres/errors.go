package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Код PostgreSQL для нарушения уникального ограничения
const uniqueViolationCode = "23505"

// isUniqueViolation проверяет, является ли ошибка нарушением уникального
// ограничения. GORM может вернуть ошибку как pgconn.PgError (драйвер pgx),
// так и pq.Error в зависимости от пути выполнения, проверяем обе.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
		return true
	}

	return false
}
