package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// Memory is an in-process Repository backed by a mutex-guarded map,
// suitable for tests and single-process deployments.
type Memory struct {
	mu     sync.Mutex
	states map[string]gamestate.GameState
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]gamestate.GameState)}
}

func (m *Memory) Save(ctx context.Context, state gamestate.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.states[state.GameID]; exists {
		return fmt.Errorf("%w: %s", gamestate.ErrGameAlreadyExists, state.GameID)
	}
	m.states[state.GameID] = state.Clone()
	return nil
}

func (m *Memory) FindByID(ctx context.Context, id string) (gamestate.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[id]
	if !ok {
		return gamestate.GameState{}, fmt.Errorf("%w: %s", gamestate.ErrGameNotFound, id)
	}
	return s.Clone(), nil
}

func (m *Memory) Update(ctx context.Context, id string, newState gamestate.GameState, expectedVersion int64) (gamestate.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.states[id]
	if !ok {
		return gamestate.GameState{}, fmt.Errorf("%w: %s", gamestate.ErrGameNotFound, id)
	}
	if stored.Version != expectedVersion {
		return gamestate.GameState{}, fmt.Errorf("%w: expected %d, stored %d", gamestate.ErrStaleState, expectedVersion, stored.Version)
	}
	m.states[id] = newState.Clone()
	return newState.Clone(), nil
}

func (m *Memory) FindByPlayer(ctx context.Context, playerID string, filters gamestate.Filters) (gamestate.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []gamestate.GameState
	for _, s := range m.states {
		if !s.HasPlayer(playerID) {
			continue
		}
		if !matchesFilters(s, filters) {
			continue
		}
		matched = append(matched, s.Clone())
	}
	return paginate(matched, filters), nil
}

func (m *Memory) FindAll(ctx context.Context, filters gamestate.Filters) (gamestate.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []gamestate.GameState
	for _, s := range m.states {
		if !matchesFilters(s, filters) {
			continue
		}
		matched = append(matched, s.Clone())
	}
	return paginate(matched, filters), nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[id]; !ok {
		return fmt.Errorf("%w: %s", gamestate.ErrGameNotFound, id)
	}
	delete(m.states, id)
	return nil
}

func matchesFilters(s gamestate.GameState, f gamestate.Filters) bool {
	if f.Lifecycle != "" && s.Lifecycle != f.Lifecycle {
		return false
	}
	if f.GameType != "" && s.GameType != f.GameType {
		return false
	}
	return true
}

func paginate(states []gamestate.GameState, f gamestate.Filters) gamestate.Page {
	sort.Slice(states, func(i, j int) bool { return states[i].CreatedAt.Before(states[j].CreatedAt) })

	page, pageSize := normalizePaging(f)
	total := int64(len(states))

	start := (page - 1) * pageSize
	if start > len(states) {
		start = len(states)
	}
	end := start + pageSize
	if end > len(states) {
		end = len(states)
	}

	return gamestate.Page{
		Items:    states[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
