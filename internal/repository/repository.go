// Package repository implements the versioned game store (C2): an
// in-memory implementation for tests and single-process deployments, and
// a GORM/pgx-backed Postgres implementation for durable, multi-process
// deployments. Both satisfy the same Repository interface.
package repository

import (
	"context"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// Repository is the C2 contract: a versioned persistent store of game
// states with optimistic-concurrency updates.
type Repository interface {
	// Save inserts a new state. Returns gamestate.ErrGameAlreadyExists if
	// GameID is already present.
	Save(ctx context.Context, state gamestate.GameState) error

	// FindByID returns gamestate.ErrGameNotFound if id is absent.
	FindByID(ctx context.Context, id string) (gamestate.GameState, error)

	// Update performs an atomic compare-and-swap on version: succeeds
	// only if the stored version equals expectedVersion, and the new
	// row's version must equal newState.Version (which must be strictly
	// greater than expectedVersion). Returns gamestate.ErrStaleState on
	// mismatch, gamestate.ErrGameNotFound if id is absent.
	Update(ctx context.Context, id string, newState gamestate.GameState, expectedVersion int64) (gamestate.GameState, error)

	// FindByPlayer lists games playerID participates in, honoring
	// filters.Lifecycle/GameType/Page/PageSize (PlayerID in filters is
	// ignored in favor of the playerID argument).
	FindByPlayer(ctx context.Context, playerID string, filters gamestate.Filters) (gamestate.Page, error)

	// FindAll lists games matching filters with no player constraint.
	FindAll(ctx context.Context, filters gamestate.Filters) (gamestate.Page, error)

	Delete(ctx context.Context, id string) error
}

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePaging clamps page/pageSize to sane defaults and bounds, the
// way a typical paginated list handler does for limit/offset.
func normalizePaging(f gamestate.Filters) (page, pageSize int) {
	page = f.Page
	if page < 1 {
		page = defaultPage
	}
	pageSize = f.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
