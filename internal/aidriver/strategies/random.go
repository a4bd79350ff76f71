// Package strategies holds AI driver strategy implementations. Random is
// the reference fallback strategy.
package strategies

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/engine/tictactoe"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

// ID is the registration key for Random, bound via Player.metadata.strategyId.
const ID = "random"

// Random enumerates candidate moves by scanning empty board positions,
// validating each through the engine, and picking uniformly among the
// valid ones.
type Random struct {
	budget time.Duration
	rng    *rand.Rand
}

// New returns a Random strategy with the default advisory time budget.
func New() *Random {
	return &Random{budget: 500 * time.Millisecond, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *Random) ID() string { return ID }

func (r *Random) Budget() time.Duration { return r.budget }

// GenerateMove currently supports position-based boards exposing
// {row,col} cells (tic-tac-toe); other engines would register their own
// strategy. Returns gamestate.ErrNoLegalMove if no candidate validates.
func (r *Random) GenerateMove(ctx context.Context, eng engine.Engine, state gamestate.GameState, aiPlayerID string) (gamestate.Move, error) {
	if eng.GameType() != tictactoe.GameType {
		return gamestate.Move{}, fmt.Errorf("%w: random strategy has no candidate generator for game type %q", gamestate.ErrNoLegalMove, eng.GameType())
	}

	candidates := tictactoe.EmptyCells(state)
	var valid [][2]int
	for _, cell := range candidates {
		select {
		case <-ctx.Done():
			return gamestate.Move{}, ctx.Err()
		default:
		}
		move := gamestate.Move{
			PlayerID:   aiPlayerID,
			Action:     "place",
			Parameters: map[string]any{"row": cell[0], "col": cell[1]},
		}
		if res := eng.ValidateMove(state, aiPlayerID, move); res.Valid {
			valid = append(valid, cell)
		}
	}

	if len(valid) == 0 {
		return gamestate.Move{}, gamestate.ErrNoLegalMove
	}

	pick := valid[r.rng.Intn(len(valid))]
	return gamestate.Move{
		PlayerID:   aiPlayerID,
		Action:     "place",
		Parameters: map[string]any{"row": pick[0], "col": pick[1]},
	}, nil
}
