package strategies

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/engine/tictactoe"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

func TestRandomGeneratesValidMove(t *testing.T) {
	eng := tictactoe.New()
	players := []gamestate.Player{{ID: "human"}, {ID: "ai"}}
	state, err := eng.InitializeGame(players, engine.Config{})
	require.NoError(t, err)
	state.Lifecycle = gamestate.LifecycleActive

	strat := New()
	move, err := strat.GenerateMove(context.Background(), eng, state, "ai")
	require.NoError(t, err)

	res := eng.ValidateMove(state, "ai", move)
	assert.True(t, res.Valid)
}

func TestRandomNoLegalMoveWhenBoardFull(t *testing.T) {
	eng := tictactoe.New()
	players := []gamestate.Player{{ID: "human"}, {ID: "ai"}}
	state, err := eng.InitializeGame(players, engine.Config{})
	require.NoError(t, err)
	state.Lifecycle = gamestate.LifecycleActive

	seq := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}, {2, 0}, {2, 1}, {2, 2}}
	for i, rc := range seq {
		pid := "human"
		if i%2 == 1 {
			pid = "ai"
		}
		state, err = eng.ApplyMove(state, pid, gamestate.Move{Parameters: map[string]any{"row": rc[0], "col": rc[1]}})
		require.NoError(t, err)
	}

	strat := New()
	_, err = strat.GenerateMove(context.Background(), eng, state, "ai")
	require.Error(t, err)
	assert.ErrorIs(t, err, gamestate.ErrNoLegalMove)
}
