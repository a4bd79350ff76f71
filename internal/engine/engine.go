// Package engine defines the pluggable game-type contract (C5). A game
// type registers an Engine in internal/registry; the reference
// implementation lives in internal/engine/tictactoe.
package engine

import "github.com/anhbaysgalan1/turngame/internal/gamestate"

// Config is the engine-defined initialization payload passed to
// InitializeGame; opaque to the core the same way Move.Parameters is.
type Config map[string]any

// Engine is the C5 plugin contract. Validate/Apply must be pure: the same
// input state must always yield the same result, and ApplyMove must never
// mutate the state it was given (see gamestate.GameState.Clone).
type Engine interface {
	GameType() string
	Description() string
	MinPlayers() int
	MaxPlayers() int

	// InitializeGame constructs the initial state: board, phase,
	// currentPlayerIndex=0, empty moveHistory. The caller (C6) overlays
	// managed fields (gameId, version, timestamps, lifecycle).
	InitializeGame(players []gamestate.Player, config Config) (gamestate.GameState, error)

	// ValidateMove is pure and side-effect-free.
	ValidateMove(state gamestate.GameState, playerID string, move gamestate.Move) gamestate.ValidationResult

	// ApplyMove is pure: it returns a new state with move appended to
	// moveHistory and turn order advanced if the game is not over. The
	// engine advances turn inside ApplyMove; the state manager never
	// calls AdvanceTurn during the normal pipeline.
	ApplyMove(state gamestate.GameState, playerID string, move gamestate.Move) (gamestate.GameState, error)

	IsGameOver(state gamestate.GameState) bool
	GetWinner(state gamestate.GameState) *string
	GetCurrentPlayer(state gamestate.GameState) string

	// AdvanceTurn cyclically increments currentPlayerIndex modulo
	// len(players). Exposed for plugins (tic-tac-toe's ApplyMove calls
	// it); neither the state manager's pipeline nor the AI driver calls it.
	AdvanceTurn(state gamestate.GameState) gamestate.GameState

	// RenderBoard produces a render description consumed by an external
	// renderer collaborator; the core never interprets it.
	RenderBoard(state gamestate.GameState) any

	Hooks
}

// Hooks are optional lifecycle callbacks. A plugin embedding NoopHooks
// gets no-op defaults for any it doesn't care about.
type Hooks interface {
	OnGameCreated(state gamestate.GameState)
	OnPlayerJoined(state gamestate.GameState, player gamestate.Player)
	OnGameStarted(state gamestate.GameState)
	OnGameEnded(state gamestate.GameState)

	// BeforeApplyMove receives the pre-move state; AfterApplyMove
	// receives (pre, post, move) so it can observe the post-state too.
	BeforeApplyMove(state gamestate.GameState, playerID string, move gamestate.Move)
	AfterApplyMove(pre, post gamestate.GameState, move gamestate.Move)
}

// NoopHooks is embeddable by engines that don't need lifecycle hooks.
type NoopHooks struct{}

func (NoopHooks) OnGameCreated(gamestate.GameState)                           {}
func (NoopHooks) OnPlayerJoined(gamestate.GameState, gamestate.Player)        {}
func (NoopHooks) OnGameStarted(gamestate.GameState)                           {}
func (NoopHooks) OnGameEnded(gamestate.GameState)                             {}
func (NoopHooks) BeforeApplyMove(gamestate.GameState, string, gamestate.Move) {}
func (NoopHooks) AfterApplyMove(pre, post gamestate.GameState, move gamestate.Move) {}
