package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/anhbaysgalan1/turngame/internal/database"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// Postgres is a durable Repository backed by GORM + pgx. Update executes
// a single conditional statement (WHERE game_id=? AND version=?) and
// treats zero rows affected as StaleState.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres wraps an existing *gorm.DB connection (see internal/database)
// as a Repository.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Save(ctx context.Context, state gamestate.GameState) error {
	row, err := toRow(state)
	if err != nil {
		return err
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", gamestate.ErrGameAlreadyExists, state.GameID)
		}
		return fmt.Errorf("repository: save: %w", err)
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, id string) (gamestate.GameState, error) {
	var row GameRow
	err := p.db.WithContext(ctx).Where("game_id = ?", id).First(&row).Error
	if database.IsNotFoundError(err) {
		return gamestate.GameState{}, fmt.Errorf("%w: %s", gamestate.ErrGameNotFound, id)
	}
	if err != nil {
		return gamestate.GameState{}, fmt.Errorf("repository: find by id: %w", err)
	}
	return fromRow(row)
}

// Update is the single conditional CAS statement that enforces optimistic
// concurrency: a zero-row result means either the game doesn't exist or
// its version has moved past expectedVersion; both surface as StaleState
// unless a fresh lookup confirms the game is simply missing.
func (p *Postgres) Update(ctx context.Context, id string, newState gamestate.GameState, expectedVersion int64) (gamestate.GameState, error) {
	row, err := toRow(newState)
	if err != nil {
		return gamestate.GameState{}, err
	}

	result := p.db.WithContext(ctx).
		Model(&GameRow{}).
		Where("game_id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"game_type":  row.GameType,
			"lifecycle":  row.Lifecycle,
			"winner":     row.Winner,
			"player_ids": row.PlayerIDs,
			"state":      row.State,
			"version":    row.Version,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		return gamestate.GameState{}, fmt.Errorf("repository: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := p.FindByID(ctx, id); err != nil {
			return gamestate.GameState{}, err
		}
		return gamestate.GameState{}, fmt.Errorf("%w: %s", gamestate.ErrStaleState, id)
	}
	return newState, nil
}

func (p *Postgres) FindByPlayer(ctx context.Context, playerID string, filters gamestate.Filters) (gamestate.Page, error) {
	query := p.db.WithContext(ctx).Model(&GameRow{}).Where("? = ANY(player_ids)", playerID)
	query = applyFilters(query, filters)
	return p.runPage(query, filters)
}

func (p *Postgres) FindAll(ctx context.Context, filters gamestate.Filters) (gamestate.Page, error) {
	query := p.db.WithContext(ctx).Model(&GameRow{})
	query = applyFilters(query, filters)
	return p.runPage(query, filters)
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	result := p.db.WithContext(ctx).Where("game_id = ?", id).Delete(&GameRow{})
	if result.Error != nil {
		return fmt.Errorf("repository: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", gamestate.ErrGameNotFound, id)
	}
	return nil
}

func applyFilters(query *gorm.DB, f gamestate.Filters) *gorm.DB {
	if f.Lifecycle != "" {
		query = query.Where("lifecycle = ?", string(f.Lifecycle))
	}
	if f.GameType != "" {
		query = query.Where("game_type = ?", f.GameType)
	}
	return query
}

func (p *Postgres) runPage(query *gorm.DB, f gamestate.Filters) (gamestate.Page, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return gamestate.Page{}, fmt.Errorf("repository: count: %w", err)
	}

	page, pageSize := normalizePaging(f)
	var rows []GameRow
	err := query.Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return gamestate.Page{}, fmt.Errorf("repository: list: %w", err)
	}

	items := make([]gamestate.GameState, 0, len(rows))
	for _, row := range rows {
		state, err := fromRow(row)
		if err != nil {
			return gamestate.Page{}, err
		}
		items = append(items, state)
	}

	return gamestate.Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
