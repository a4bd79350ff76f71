// Package registry implements the plugin registry (C1): a map from
// game-type tag to engine.Engine, written once at startup and read
// concurrently on every request thereafter.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// Registry is safe for concurrent Get/List once startup registration is
// complete; Register is expected to be called only during wiring.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]engine.Engine
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{engines: make(map[string]engine.Engine)}
}

// Register adds an engine keyed by its GameType tag. Returns
// gamestate.ErrAlreadyRegistered if the tag is already present.
func (r *Registry) Register(e engine.Engine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag := e.GameType()
	if _, exists := r.engines[tag]; exists {
		return fmt.Errorf("%w: %s", gamestate.ErrAlreadyRegistered, tag)
	}
	r.engines[tag] = e
	return nil
}

// Get looks up the engine for tag. Returns gamestate.ErrUnknownGameType if
// absent.
func (r *Registry) Get(tag string) (engine.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gamestate.ErrUnknownGameType, tag)
	}
	return e, nil
}

// List returns the known engine types, sorted by tag for deterministic
// output.
func (r *Registry) List() []gamestate.EngineInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]gamestate.EngineInfo, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, gamestate.EngineInfo{
			GameType:    e.GameType(),
			Description: e.Description(),
			MinPlayers:  e.MinPlayers(),
			MaxPlayers:  e.MaxPlayers(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameType < out[j].GameType })
	return out
}
