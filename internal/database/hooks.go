package database

import (
	"log/slog"
)

// SetupIndexes creates additional indexes that GORM can't handle automatically
func (db *DB) SetupIndexes() error {
	slog.Info("Setting up additional database indexes")

	// Composite index for findAll's (game_type, lifecycle) filter path
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_games_type_lifecycle
		ON games(game_type, lifecycle)
	`).Error; err != nil {
		return err
	}

	// GIN index over player_ids for findByPlayer's ANY() containment lookup
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_games_player_ids_gin
		ON games USING GIN (player_ids)
	`).Error; err != nil {
		return err
	}

	slog.Info("Additional database indexes created successfully")
	return nil
}
