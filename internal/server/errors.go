package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anhbaysgalan1/turngame/internal/gamestate"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeGameError maps a gamestate sentinel (or wrapped InvalidMoveError)
// to its HTTP status, and anything unrecognized to 500.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case gamestate.IsInvalidMove(err):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamestate.ErrUnknownGameType):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamestate.ErrGameNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gamestate.ErrGameFull),
		errors.Is(err, gamestate.ErrInvalidLifecycle),
		errors.Is(err, gamestate.ErrPlayerAlreadyPresent),
		errors.Is(err, gamestate.ErrStaleState),
		errors.Is(err, gamestate.ErrGameAlreadyExists):
		writeErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, gamestate.ErrUnauthorizedMove):
		writeErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, gamestate.ErrNoLegalMove):
		slog.Warn("server: ai driver found no legal move", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "no legal move available")
	default:
		slog.Error("server: unhandled error", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}
