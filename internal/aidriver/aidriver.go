// Package aidriver implements the AI driver (C8): a registry of
// strategies and bounded-time move synthesis for AI-occupied seats. It
// only produces moves; the state manager applies, persists and publishes
// them.
package aidriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// DefaultBudget is the advisory per-move time budget a strategy gets if
// it declares none.
const DefaultBudget = 500 * time.Millisecond

// Strategy synthesizes a move for aiPlayerID given the current state.
// Implementations must return gamestate.ErrNoLegalMove when no move is
// available, and should respect ctx's deadline.
type Strategy interface {
	ID() string
	Budget() time.Duration
	GenerateMove(ctx context.Context, eng engine.Engine, state gamestate.GameState, aiPlayerID string) (gamestate.Move, error)
}

// Driver is a registry of named strategies, keyed by Player.StrategyID().
type Driver struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// New returns an empty driver; strategies are registered at startup via
// Register, mirroring the registry package's write-once-at-startup style.
func New() *Driver {
	return &Driver{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its own ID, overwriting any prior
// registration for the same id (strategies are wired once in main).
func (d *Driver) Register(s Strategy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.strategies[s.ID()] = s
}

// GenerateMove resolves the strategy registered under strategyID (the
// caller passes the seat's bound strategy) and synthesizes a move for
// aiPlayerID within that strategy's declared time budget.
// Exceeding the budget (or any strategy error) surfaces as
// gamestate.ErrNoLegalMove, ending the AI chain without advancing turn.
func (d *Driver) GenerateMove(ctx context.Context, eng engine.Engine, state gamestate.GameState, aiPlayerID, strategyID string) (gamestate.Move, error) {
	d.mu.RLock()
	strategy, ok := d.strategies[strategyID]
	d.mu.RUnlock()
	if !ok {
		return gamestate.Move{}, fmt.Errorf("%w: ai strategy %q not registered", gamestate.ErrNoLegalMove, strategyID)
	}

	budget := strategy.Budget()
	if budget <= 0 {
		budget = DefaultBudget
	}
	bctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		move gamestate.Move
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		move, err := strategy.GenerateMove(bctx, eng, state, aiPlayerID)
		ch <- result{move, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return gamestate.Move{}, fmt.Errorf("%w: %v", gamestate.ErrNoLegalMove, r.err)
		}
		return r.move, nil
	case <-bctx.Done():
		return gamestate.Move{}, fmt.Errorf("%w: strategy %q exceeded its time budget", gamestate.ErrNoLegalMove, strategyID)
	}
}
