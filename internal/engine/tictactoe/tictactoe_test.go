package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

func newState() gamestate.GameState {
	e := New()
	players := []gamestate.Player{{ID: "A"}, {ID: "B"}}
	s, err := e.InitializeGame(players, engine.Config{})
	if err != nil {
		panic(err)
	}
	s.Lifecycle = gamestate.LifecycleActive
	return s
}

func move(row, col int) gamestate.Move {
	return gamestate.Move{Parameters: map[string]any{"row": row, "col": col}}
}

func TestValidateMoveRejectsOccupiedCell(t *testing.T) {
	e := New()
	s := newState()

	s, err := e.ApplyMove(s, "A", move(1, 1))
	require.NoError(t, err)

	res := e.ValidateMove(s, "B", move(1, 1))
	assert.False(t, res.Valid)
}

func TestApplyMoveAdvancesTurn(t *testing.T) {
	e := New()
	s := newState()

	next, err := e.ApplyMove(s, "A", move(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	assert.Len(t, next.MoveHistory, 1)
}

func TestWinningLine(t *testing.T) {
	e := New()
	s := newState()

	seq := []struct {
		player   string
		row, col int
	}{
		{"A", 0, 0}, {"B", 1, 0},
		{"A", 0, 1}, {"B", 1, 1},
		{"A", 0, 2},
	}
	var err error
	for _, m := range seq {
		s, err = e.ApplyMove(s, m.player, move(m.row, m.col))
		require.NoError(t, err)
	}

	assert.True(t, e.IsGameOver(s))
	winner := e.GetWinner(s)
	require.NotNil(t, winner)
	assert.Equal(t, "A", *winner)
}

func TestDraw(t *testing.T) {
	e := New()
	s := newState()

	seq := []struct {
		player   string
		row, col int
	}{
		{"A", 0, 0}, {"B", 0, 1},
		{"A", 0, 2}, {"B", 1, 1},
		{"A", 1, 0}, {"B", 1, 2},
		{"A", 2, 1}, {"B", 2, 0},
		{"A", 2, 2},
	}
	var err error
	for _, m := range seq {
		s, err = e.ApplyMove(s, m.player, move(m.row, m.col))
		require.NoError(t, err)
	}

	assert.True(t, e.IsGameOver(s))
	assert.Nil(t, e.GetWinner(s))
}

func TestApplyMoveIsPure(t *testing.T) {
	e := New()
	s := newState()

	a, err := e.ApplyMove(s, "A", move(0, 0))
	require.NoError(t, err)
	b, err := e.ApplyMove(s, "A", move(0, 0))
	require.NoError(t, err)

	assert.Equal(t, a.CurrentPlayerIndex, b.CurrentPlayerIndex)
	assert.Equal(t, a.MoveHistory, b.MoveHistory)
	// original state untouched
	assert.Empty(t, s.MoveHistory)
}

func TestEmptyCells(t *testing.T) {
	s := newState()
	cells := EmptyCells(s)
	assert.Len(t, cells, 9)
}
