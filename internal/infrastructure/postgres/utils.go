package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE que el historial distingue.
const (
	sqlstateUniqueViolation = "23505"
	sqlstateUndefinedTable  = "42P01"
)

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// isUniqueViolation verifica si un error es una violación de constraint único.
func isUniqueViolation(err error) bool { return hasSQLState(err, sqlstateUniqueViolation) }

// isUndefinedTable la tabla del historial no existe (EnsureSchema no se ejecutó).
func isUndefinedTable(err error) bool { return hasSQLState(err, sqlstateUndefinedTable) }
