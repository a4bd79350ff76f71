package tictactoe

import "encoding/json"

// MarshalBoard serializes the engine-private Board into the opaque wire
// form the repository persists inside GameState.Board (json.RawMessage).
// The core never interprets this payload; only this package does.
func MarshalBoard(board Board) json.RawMessage {
	raw, err := json.Marshal(board)
	if err != nil {
		return json.RawMessage("[]")
	}
	return raw
}

// UnmarshalBoard accepts whatever decoded shape state.Board arrives in
// after a round trip through the repository (json.RawMessage, []any from a
// generic JSON decode, or already a Board) and normalizes it back to Board.
func UnmarshalBoard(v any) Board {
	switch b := v.(type) {
	case Board:
		return b
	case json.RawMessage:
		var board Board
		if err := json.Unmarshal(b, &board); err == nil {
			return board
		}
	case []byte:
		var board Board
		if err := json.Unmarshal(b, &board); err == nil {
			return board
		}
	case string:
		var board Board
		if err := json.Unmarshal([]byte(b), &board); err == nil {
			return board
		}
	case []any:
		var board Board
		for i, raw := range b {
			if i >= boardSize {
				break
			}
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			owner, _ := m["owner"].(string)
			token, _ := m["token"].(string)
			board[i] = Cell{Owner: owner, Token: token}
		}
		return board
	}
	return Board{}
}
