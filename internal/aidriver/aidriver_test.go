package aidriver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/engine/tictactoe"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

type slowStrategy struct{ delay time.Duration }

func (s slowStrategy) ID() string            { return "slow" }
func (s slowStrategy) Budget() time.Duration { return 10 * time.Millisecond }
func (s slowStrategy) GenerateMove(ctx context.Context, eng engine.Engine, state gamestate.GameState, aiPlayerID string) (gamestate.Move, error) {
	select {
	case <-time.After(s.delay):
		return gamestate.Move{PlayerID: aiPlayerID}, nil
	case <-ctx.Done():
		return gamestate.Move{}, ctx.Err()
	}
}

func TestGenerateMoveUnknownStrategy(t *testing.T) {
	d := New()
	eng := tictactoe.New()
	_, err := d.GenerateMove(context.Background(), eng, gamestate.GameState{}, "ai", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, gamestate.ErrNoLegalMove)
}

func TestGenerateMoveExceedsBudget(t *testing.T) {
	d := New()
	d.Register(slowStrategy{delay: 50 * time.Millisecond})
	eng := tictactoe.New()

	_, err := d.GenerateMove(context.Background(), eng, gamestate.GameState{}, "ai", "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, gamestate.ErrNoLegalMove)
}

func TestGenerateMoveWithinBudget(t *testing.T) {
	d := New()
	d.Register(slowStrategy{delay: time.Millisecond})
	eng := tictactoe.New()

	move, err := d.GenerateMove(context.Background(), eng, gamestate.GameState{}, "ai", "slow")
	require.NoError(t, err)
	assert.Equal(t, "ai", move.PlayerID)
}
