// Package tictactoe is the reference C5 plugin: a 3x3 board, two seats
// ('X' and 'O'), standard win/draw detection.
package tictactoe

import (
	"fmt"

	"github.com/anhbaysgalan1/turngame/internal/engine"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

const (
	GameType   = "tic-tac-toe"
	boardSize  = 9
	winLength  = 3
)

// Cell is a single board position: empty, or owned by a seat's token.
type Cell struct {
	Owner string `json:"owner,omitempty"` // player id, "" if empty
	Token string `json:"token,omitempty"` // "X" or "O"
}

// Board is the engine-private 3x3 layout, row-major, indices 0..8.
type Board [boardSize]Cell

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

var seatTokens = []string{"X", "O"}

// Engine implements engine.Engine for tic-tac-toe.
type Engine struct {
	engine.NoopHooks
}

// New returns a tic-tac-toe engine instance.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) GameType() string    { return GameType }
func (e *Engine) Description() string { return "Classic 3x3 tic-tac-toe" }
func (e *Engine) MinPlayers() int     { return 2 }
func (e *Engine) MaxPlayers() int     { return 2 }

func (e *Engine) InitializeGame(players []gamestate.Player, config engine.Config) (gamestate.GameState, error) {
	board := Board{}
	return gamestate.GameState{
		Players:            players,
		CurrentPlayerIndex: 0,
		Phase:              "main",
		Board:              MarshalBoard(board),
		MoveHistory:        nil,
	}, nil
}

// rowCol extracts {row,col} from move.Parameters.
func rowCol(move gamestate.Move) (int, int, bool) {
	row, ok1 := asInt(move.Parameters["row"])
	col, ok2 := asInt(move.Parameters["col"])
	return row, col, ok1 && ok2
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// board normalizes state.Board back into the engine-private shape.
// ApplyMove/InitializeGame always set it via MarshalBoard, so the
// in-process path sees json.RawMessage; a round trip through the
// repository's jsonb column and back decodes it to a generic map/slice
// shape instead, which UnmarshalBoard also handles.
func (e *Engine) board(state gamestate.GameState) Board {
	if b, ok := state.Board.(Board); ok {
		return b
	}
	return UnmarshalBoard(state.Board)
}

func (e *Engine) ValidateMove(state gamestate.GameState, playerID string, move gamestate.Move) gamestate.ValidationResult {
	row, col, ok := rowCol(move)
	if !ok {
		return gamestate.ValidationResult{Valid: false, Reason: "move parameters must include integer row and col"}
	}
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return gamestate.ValidationResult{Valid: false, Reason: "row and col must be in [0,2]"}
	}

	board := e.board(state)
	idx := row*3 + col
	if board[idx].Owner != "" {
		return gamestate.ValidationResult{Valid: false, Reason: fmt.Sprintf("cell (%d,%d) is already occupied", row, col)}
	}
	return gamestate.ValidationResult{Valid: true}
}

func (e *Engine) ApplyMove(state gamestate.GameState, playerID string, move gamestate.Move) (gamestate.GameState, error) {
	next := state.Clone()

	row, col, ok := rowCol(move)
	if !ok {
		return state, gamestate.NewInvalidMoveError("move parameters must include integer row and col")
	}

	board := e.board(next)
	idx := row*3 + col
	seatIdx := next.CurrentPlayerIndex
	token := "X"
	if seatIdx >= 0 && seatIdx < len(seatTokens) {
		token = seatTokens[seatIdx]
	}
	board[idx] = Cell{Owner: playerID, Token: token}
	next.Board = MarshalBoard(board)
	next.MoveHistory = append(next.MoveHistory, move)

	if !e.isOver(board) {
		next = e.AdvanceTurn(next)
	}
	return next, nil
}

func (e *Engine) isOver(board Board) bool {
	return e.winnerOf(board) != "" || e.isFull(board)
}

func (e *Engine) isFull(board Board) bool {
	for _, c := range board {
		if c.Owner == "" {
			return false
		}
	}
	return true
}

func (e *Engine) winnerOf(board Board) string {
	for _, line := range winLines {
		a, b, c := board[line[0]], board[line[1]], board[line[2]]
		if a.Owner != "" && a.Owner == b.Owner && b.Owner == c.Owner {
			return a.Owner
		}
	}
	return ""
}

func (e *Engine) IsGameOver(state gamestate.GameState) bool {
	return e.isOver(e.board(state))
}

func (e *Engine) GetWinner(state gamestate.GameState) *string {
	w := e.winnerOf(e.board(state))
	if w == "" {
		return nil
	}
	return &w
}

func (e *Engine) GetCurrentPlayer(state gamestate.GameState) string {
	return state.CurrentPlayer()
}

func (e *Engine) AdvanceTurn(state gamestate.GameState) gamestate.GameState {
	next := state
	if len(next.Players) > 0 {
		next.CurrentPlayerIndex = (next.CurrentPlayerIndex + 1) % len(next.Players)
	}
	return next
}

func (e *Engine) RenderBoard(state gamestate.GameState) any {
	board := e.board(state)
	rows := make([][3]string, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			cell := board[r*3+c]
			if cell.Token == "" {
				rows[r][c] = "."
			} else {
				rows[r][c] = cell.Token
			}
		}
	}
	return rows
}

// EmptyCells returns the {row,col} of every unoccupied cell, used by the
// random AI strategy to enumerate candidate moves.
func EmptyCells(state gamestate.GameState) [][2]int {
	e := &Engine{}
	board := e.board(state)
	var out [][2]int
	for i, cell := range board {
		if cell.Owner == "" {
			out = append(out, [2]int{i / 3, i % 3})
		}
	}
	return out
}
