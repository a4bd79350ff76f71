package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// jsonColumn is a generic JSONB column value, following the same
// Scan/Value convention GORM model columns commonly use for
// opaque blobs.
type jsonColumn []byte

func (j jsonColumn) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

func (j *jsonColumn) Scan(v any) error {
	switch val := v.(type) {
	case []byte:
		*j = append(jsonColumn(nil), val...)
	case string:
		*j = jsonColumn(val)
	case nil:
		*j = nil
	default:
		return fmt.Errorf("repository: cannot scan %T into jsonColumn", v)
	}
	return nil
}

// GameRow is the GORM model for table `games`, matching the
// persisted state layout: game_id PK, game_type, lifecycle, winner
// NULLABLE, state JSON, version INT, created_at, updated_at.
type GameRow struct {
	GameID    string         `gorm:"column:game_id;primaryKey"`
	GameType  string         `gorm:"column:game_type;index"`
	Lifecycle string         `gorm:"column:lifecycle;index"`
	Winner    *string        `gorm:"column:winner"`
	PlayerIDs pq.StringArray `gorm:"column:player_ids;type:text[]"`
	State     jsonColumn     `gorm:"column:state;type:jsonb"`
	Version   int64          `gorm:"column:version"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (GameRow) TableName() string { return "games" }

// toRow serializes a GameState into its persisted row form.
func toRow(state gamestate.GameState) (GameRow, error) {
	blob, err := json.Marshal(state)
	if err != nil {
		return GameRow{}, fmt.Errorf("repository: marshal state: %w", err)
	}
	ids := make(pq.StringArray, 0, len(state.Players))
	for _, p := range state.Players {
		ids = append(ids, p.ID)
	}
	return GameRow{
		GameID:    state.GameID,
		GameType:  state.GameType,
		Lifecycle: string(state.Lifecycle),
		Winner:    state.Winner,
		PlayerIDs: ids,
		State:     jsonColumn(blob),
		Version:   state.Version,
		CreatedAt: state.CreatedAt,
		UpdatedAt: state.UpdatedAt,
	}, nil
}

// fromRow deserializes the full GameState from its jsonb payload; the
// scalar columns exist for indexing/filtering, not as the source of
// truth (the jsonb blob is).
func fromRow(row GameRow) (gamestate.GameState, error) {
	var state gamestate.GameState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return gamestate.GameState{}, fmt.Errorf("repository: unmarshal state: %w", err)
	}
	return state, nil
}
