package gamemanager

import "github.com/anhbaysgalan1/turngame/internal/engine"

// CreateGameCommand is the C6 create operation's input, following a
// plain command-struct style.
type CreateGameCommand struct {
	GameType    string
	Config      engine.Config
	Name        string
	Description string
	CreatorID   string
	// HumanPlayers seed the initial roster (id, name). AIPlayers declare
	// additional AI seats by strategy id; the manager assigns their ids.
	HumanPlayers []HumanPlayer
	AIPlayers    []AIPlayerSpec
}

// HumanPlayer is a human seat supplied at creation or join time.
type HumanPlayer struct {
	ID   string
	Name string
}

// AIPlayerSpec declares an AI seat to materialize at creation time.
type AIPlayerSpec struct {
	StrategyID string
	Name       string
}

// JoinGameCommand is the C6 join operation's input.
type JoinGameCommand struct {
	GameID string
	Player HumanPlayer
}
