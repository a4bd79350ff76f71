package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueConstraintError reports whether err is a PostgreSQL unique
// constraint violation (used by repository.Save to map a duplicate
// game_id into gamestate.ErrGameAlreadyExists).
func IsUniqueConstraintError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsNotFoundError reports whether err is GORM's record-not-found
// sentinel (used by repository.FindByID to map into
// gamestate.ErrGameNotFound).
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}