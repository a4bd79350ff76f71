// Package gamemanager implements the Game Manager (C6): create, join,
// list and get, enforcing lifecycle transitions tied to player count.
// Mirrors a CQRS command/handler split (application/dto +
// application/handlers/command_handlers.go): commands are plain structs,
// validated, then applied through the repository.
package gamemanager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
	"github.com/anhbaysgalan1/turngame/internal/registry"
	"github.com/anhbaysgalan1/turngame/internal/repository"
)

// Manager implements the C6 contract.
type Manager struct {
	registry *registry.Registry
	repo     repository.Repository
}

// New wires a Game Manager against the startup-populated registry and the
// configured repository implementation.
func New(reg *registry.Registry, repo repository.Repository) *Manager {
	return &Manager{registry: reg, repo: repo}
}

// CreateGame resolves the engine, materializes any declared AI seats,
// determines the initial lifecycle from player count, and persists the
// result.
func (m *Manager) CreateGame(ctx context.Context, cmd CreateGameCommand) (gamestate.GameState, error) {
	eng, err := m.registry.Get(cmd.GameType)
	if err != nil {
		return gamestate.GameState{}, err
	}

	players := make([]gamestate.Player, 0, len(cmd.HumanPlayers)+len(cmd.AIPlayers))
	now := time.Now().UTC()
	for _, hp := range cmd.HumanPlayers {
		players = append(players, gamestate.Player{ID: hp.ID, Name: hp.Name, JoinedAt: now})
	}
	aiCount := 0
	for _, ai := range cmd.AIPlayers {
		aiCount++
		players = append(players, gamestate.Player{
			ID:       fmt.Sprintf("ai-%s", uuid.NewString()),
			Name:     ai.Name,
			JoinedAt: now,
			Metadata: map[string]any{"isAI": true, "strategyId": ai.StrategyID},
		})
	}

	lifecycle := initialLifecycle(len(players), eng.MinPlayers())

	state, err := eng.InitializeGame(players, cmd.Config)
	if err != nil {
		return gamestate.GameState{}, fmt.Errorf("%w: %v", gamestate.ErrInternal, err)
	}

	state.GameID = uuid.NewString()
	state.GameType = cmd.GameType
	state.Version = 1
	state.CreatedAt = now
	state.UpdatedAt = now
	state.Lifecycle = lifecycle
	state.Players = players
	if state.MoveHistory == nil {
		state.MoveHistory = []gamestate.Move{}
	}
	state.Metadata = mergeMetadata(state.Metadata, map[string]any{
		"creatorId":     cmd.CreatorID,
		"name":          cmd.Name,
		"description":   cmd.Description,
		"hasAIPlayers":  aiCount > 0,
		"aiPlayerCount": aiCount,
	})

	if err := m.repo.Save(ctx, state); err != nil {
		return gamestate.GameState{}, err
	}

	eng.OnGameCreated(state)
	if lifecycle == gamestate.LifecycleActive {
		eng.OnGameStarted(state)
	}

	return enhance(state), nil
}

// JoinGame appends a player to an existing game, recomputing lifecycle
// as seats fill.
func (m *Manager) JoinGame(ctx context.Context, cmd JoinGameCommand) (gamestate.GameState, error) {
	state, err := m.repo.FindByID(ctx, cmd.GameID)
	if err != nil {
		return gamestate.GameState{}, err
	}

	eng, err := m.registry.Get(state.GameType)
	if err != nil {
		return gamestate.GameState{}, err
	}

	if len(state.Players) >= eng.MaxPlayers() {
		return gamestate.GameState{}, gamestate.ErrGameFull
	}
	switch state.Lifecycle {
	case gamestate.LifecycleCreated, gamestate.LifecycleWaitingForPlayers, gamestate.LifecycleActive:
	default:
		return gamestate.GameState{}, fmt.Errorf("%w: %s", gamestate.ErrInvalidLifecycle, state.Lifecycle)
	}
	if state.HasPlayer(cmd.Player.ID) {
		return gamestate.GameState{}, gamestate.ErrPlayerAlreadyPresent
	}

	next := state.Clone()
	next.Players = append(next.Players, gamestate.Player{
		ID:       cmd.Player.ID,
		Name:     cmd.Player.Name,
		JoinedAt: time.Now().UTC(),
	})

	wasWaiting := next.Lifecycle == gamestate.LifecycleCreated || next.Lifecycle == gamestate.LifecycleWaitingForPlayers
	if wasWaiting && len(next.Players) >= eng.MinPlayers() {
		next.Lifecycle = gamestate.LifecycleActive
	} else if next.Lifecycle == gamestate.LifecycleCreated {
		next.Lifecycle = gamestate.LifecycleWaitingForPlayers
	}

	next.Version = state.Version + 1
	next.UpdatedAt = time.Now().UTC()

	stored, err := m.repo.Update(ctx, cmd.GameID, next, state.Version)
	if err != nil {
		return gamestate.GameState{}, err
	}

	if wasWaiting && stored.Lifecycle == gamestate.LifecycleActive {
		eng.OnGameStarted(stored)
	}
	eng.OnPlayerJoined(stored, cmd.Player.toGamestate())

	return enhance(stored), nil
}

// ListGames delegates to the repository's FindAll (no player constraint),
// enhancing each result with AI-summary metadata.
func (m *Manager) ListGames(ctx context.Context, filters gamestate.Filters) (gamestate.Page, error) {
	page, err := m.repo.FindAll(ctx, filters)
	if err != nil {
		return gamestate.Page{}, err
	}
	return enhancePage(page), nil
}

// ListGamesForPlayer delegates to FindByPlayer.
func (m *Manager) ListGamesForPlayer(ctx context.Context, playerID string, filters gamestate.Filters) (gamestate.Page, error) {
	page, err := m.repo.FindByPlayer(ctx, playerID, filters)
	if err != nil {
		return gamestate.Page{}, err
	}
	return enhancePage(page), nil
}

// GetGame loads a single game by id, enhanced with AI-summary metadata.
func (m *Manager) GetGame(ctx context.Context, gameID string) (gamestate.GameState, error) {
	state, err := m.repo.FindByID(ctx, gameID)
	if err != nil {
		return gamestate.GameState{}, err
	}
	return enhance(state), nil
}

func initialLifecycle(playerCount, minPlayers int) gamestate.Lifecycle {
	switch {
	case playerCount == 0:
		return gamestate.LifecycleCreated
	case playerCount < minPlayers:
		return gamestate.LifecycleWaitingForPlayers
	default:
		return gamestate.LifecycleActive
	}
}

func mergeMetadata(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// enhance overlays hasAIPlayers/aiPlayerCount onto a state returned from
// the repository.
func enhance(state gamestate.GameState) gamestate.GameState {
	count := state.AICount()
	state.Metadata = mergeMetadata(state.Metadata, map[string]any{
		"hasAIPlayers":  count > 0,
		"aiPlayerCount": count,
	})
	return state
}

func enhancePage(page gamestate.Page) gamestate.Page {
	for i := range page.Items {
		page.Items[i] = enhance(page.Items[i])
	}
	return page
}

func (p HumanPlayer) toGamestate() gamestate.Player {
	return gamestate.Player{ID: p.ID, Name: p.Name}
}
