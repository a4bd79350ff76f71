// Package statemanager implements the State Manager (C7), the move
// pipeline: lock -> load -> authorize -> validate -> apply -> persist
// -> publish -> AI-chain.
package statemanager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhbaysgalan1/turngame/internal/aidriver"
	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
	"github.com/anhbaysgalan1/turngame/internal/hub"
	"github.com/anhbaysgalan1/turngame/internal/lock"
	"github.com/anhbaysgalan1/turngame/internal/registry"
	"github.com/anhbaysgalan1/turngame/internal/repository"
)

// MaxAIIterationsDefault is used when config.MaxAIIterations is unset.
const MaxAIIterationsDefault = 10

// Manager is the C7 contract.
type Manager struct {
	registry        *registry.Registry
	repo            repository.Repository
	locks           *lock.Manager
	hub             *hub.Hub
	ai              *aidriver.Driver
	maxAIIterations int
}

// Option configures Manager at construction time.
type Option func(*Manager)

// WithMaxAIIterations overrides MaxAIIterationsDefault.
func WithMaxAIIterations(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAIIterations = n
		}
	}
}

// New wires a State Manager from its C1/C2/C3/C4/C8 collaborators.
func New(reg *registry.Registry, repo repository.Repository, locks *lock.Manager, h *hub.Hub, ai *aidriver.Driver, opts ...Option) *Manager {
	m := &Manager{
		registry:        reg,
		repo:            repo,
		locks:           locks,
		hub:             h,
		ai:              ai,
		maxAIIterations: MaxAIIterationsDefault,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyMove runs the full move pipeline inside the per-game lock.
func (m *Manager) ApplyMove(ctx context.Context, gameID, playerID string, move gamestate.Move, expectedVersion int64) (gamestate.GameState, error) {
	var result gamestate.GameState
	err := m.locks.WithLock(ctx, gameID, func(ctx context.Context) error {
		state, eng, err := m.loadAndAuthorize(ctx, gameID, playerID)
		if err != nil {
			return err
		}

		next, err := m.applyAuthorizedMove(ctx, eng, state, playerID, move, expectedVersion, false)
		if err != nil {
			return err
		}

		if next.Lifecycle == gamestate.LifecycleActive {
			next = m.runAIChain(ctx, eng, gameID, next)
		}

		result = next
		return nil
	})
	return result, err
}

// ValidateMove is the read-only validate-only path: no lock required.
func (m *Manager) ValidateMove(ctx context.Context, gameID, playerID string, move gamestate.Move) (gamestate.ValidationResult, error) {
	state, err := m.repo.FindByID(ctx, gameID)
	if err != nil {
		return gamestate.ValidationResult{}, err
	}
	eng, err := m.registry.Get(state.GameType)
	if err != nil {
		return gamestate.ValidationResult{}, err
	}
	return eng.ValidateMove(state, playerID, move), nil
}

// loadAndAuthorize performs pipeline steps 1-4: load, resolve engine,
// lifecycle gate, authorization.
func (m *Manager) loadAndAuthorize(ctx context.Context, gameID, playerID string) (gamestate.GameState, engine.Engine, error) {
	state, err := m.repo.FindByID(ctx, gameID)
	if err != nil {
		return gamestate.GameState{}, nil, err
	}

	eng, err := m.registry.Get(state.GameType)
	if err != nil {
		return gamestate.GameState{}, nil, err
	}

	if state.Lifecycle == gamestate.LifecycleCompleted {
		return gamestate.GameState{}, nil, gamestate.NewInvalidMoveError("game already completed")
	}
	if state.Lifecycle != gamestate.LifecycleActive {
		return gamestate.GameState{}, nil, gamestate.NewInvalidMoveError(fmt.Sprintf("game is %s, not active", state.Lifecycle))
	}

	if !state.HasPlayer(playerID) {
		return gamestate.GameState{}, nil, gamestate.ErrUnauthorizedMove
	}
	if eng.GetCurrentPlayer(state) != playerID {
		return gamestate.GameState{}, nil, gamestate.ErrUnauthorizedMove
	}

	return state, eng, nil
}

// applyAuthorizedMove runs pipeline steps 5-13 for an already-authorized
// mover: hooks, validate, enrich, apply, completion check, persist,
// publish. lastMoveByAI controls the GameUpdate flag.
func (m *Manager) applyAuthorizedMove(ctx context.Context, eng engine.Engine, state gamestate.GameState, playerID string, move gamestate.Move, expectedVersion int64, lastMoveByAI bool) (gamestate.GameState, error) {
	eng.BeforeApplyMove(state, playerID, move)

	if res := eng.ValidateMove(state, playerID, move); !res.Valid {
		return gamestate.GameState{}, gamestate.NewInvalidMoveError(res.Reason)
	}

	move.PlayerID = playerID
	move.Timestamp = time.Now().UTC()

	next, err := eng.ApplyMove(state, playerID, move)
	if err != nil {
		return gamestate.GameState{}, err
	}

	if eng.IsGameOver(next) {
		next.Lifecycle = gamestate.LifecycleCompleted
		winner := eng.GetWinner(next)
		next.Winner = winner
		next.Metadata = withDrawFlag(next.Metadata, winner == nil)
	}

	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()

	stored, err := m.repo.Update(ctx, state.GameID, next, expectedVersion)
	if err != nil {
		return gamestate.GameState{}, err
	}

	m.hub.BroadcastToGame(ctx, state.GameID, gamestate.GameUpdate{
		Type:         gamestate.EventGameUpdate,
		GameID:       state.GameID,
		GameState:    stored,
		LastMoveByAI: lastMoveByAI,
		Timestamp:    time.Now().UTC(),
	})

	eng.AfterApplyMove(state, stored, move)

	if stored.Lifecycle == gamestate.LifecycleCompleted {
		eng.OnGameEnded(stored)
		winnerIsAI := false
		if stored.Winner != nil {
			for _, p := range stored.Players {
				if p.ID == *stored.Winner {
					winnerIsAI = p.IsAI()
				}
			}
		}
		m.hub.BroadcastToGame(ctx, state.GameID, gamestate.GameComplete{
			Type:       gamestate.EventGameComplete,
			GameID:     state.GameID,
			Winner:     stored.Winner,
			WinnerIsAI: winnerIsAI,
			Timestamp:  time.Now().UTC(),
		})
	}

	return stored, nil
}

// runAIChain drives consecutive AI seats forward, bounded by
// maxAIIterations.
func (m *Manager) runAIChain(ctx context.Context, eng engine.Engine, gameID string, s gamestate.GameState) gamestate.GameState {
	current := s
	for i := 0; i < m.maxAIIterations; i++ {
		if current.Lifecycle != gamestate.LifecycleActive {
			return current
		}
		pid := eng.GetCurrentPlayer(current)
		if pid == "" {
			return current
		}
		var seat gamestate.Player
		found := false
		for _, p := range current.Players {
			if p.ID == pid {
				seat = p
				found = true
				break
			}
		}
		if !found || !seat.IsAI() {
			return current
		}

		next, err := m.processAITurn(ctx, eng, gameID, seat)
		if err != nil {
			slog.Warn("statemanager: ai chain terminated", "gameId", gameID, "playerId", pid, "error", err)
			return current
		}
		current = next
	}
	slog.Warn("statemanager: ai chain hit iteration cap", "gameId", gameID, "maxIterations", m.maxAIIterations)
	return current
}

// processAITurn is the AI chain's per-iteration delegate: synthesize a
// move via the seat's bound strategy, then run the same steps 5-11 as a
// human move, and re-load from the repository as source of truth.
func (m *Manager) processAITurn(ctx context.Context, eng engine.Engine, gameID string, seat gamestate.Player) (gamestate.GameState, error) {
	state, err := m.repo.FindByID(ctx, gameID)
	if err != nil {
		return gamestate.GameState{}, err
	}

	move, err := m.ai.GenerateMove(ctx, eng, state, seat.ID, seat.StrategyID())
	if err != nil {
		return gamestate.GameState{}, err
	}

	stored, err := m.applyAuthorizedMove(ctx, eng, state, seat.ID, move, state.Version, true)
	if err != nil {
		return gamestate.GameState{}, err
	}

	current, err := m.repo.FindByID(ctx, gameID)
	if err != nil {
		return gamestate.GameState{}, err
	}
	return mostRecent(stored, current), nil
}

// mostRecent returns whichever of a, b has the higher version, guarding
// against a repository read racing the write it just performed.
func mostRecent(a, b gamestate.GameState) gamestate.GameState {
	if b.Version > a.Version {
		return b
	}
	return a
}

func withDrawFlag(meta map[string]any, isDraw bool) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["isDraw"] = isDraw
	return out
}
