package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anhbaysgalan1/turngame/internal/auth"
	"github.com/anhbaysgalan1/turngame/internal/gamemanager"
	"github.com/anhbaysgalan1/turngame/internal/gamestate"
	"github.com/anhbaysgalan1/turngame/internal/registry"
	"github.com/anhbaysgalan1/turngame/internal/statemanager"
	"github.com/anhbaysgalan1/turngame/internal/validation"
)

// gameHandler exposes the REST surface over C6 (gamemanager) and C7
// (statemanager): create/join/list/get games and submit/validate moves.
type gameHandler struct {
	gameManager  *gamemanager.Manager
	stateManager *statemanager.Manager
	registry     *registry.Registry
}

func newGameHandler(gm *gamemanager.Manager, sm *statemanager.Manager, reg *registry.Registry) *gameHandler {
	return &gameHandler{gameManager: gm, stateManager: sm, registry: reg}
}

func (h *gameHandler) createGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.GetPlayerIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	name, _ := auth.GetNameFromContext(r.Context())

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validation.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	aiPlayers := make([]gamemanager.AIPlayerSpec, 0, len(req.AIPlayers))
	for _, ai := range req.AIPlayers {
		aiPlayers = append(aiPlayers, gamemanager.AIPlayerSpec{StrategyID: ai.StrategyID, Name: ai.Name})
	}

	state, err := h.gameManager.CreateGame(r.Context(), gamemanager.CreateGameCommand{
		GameType:     req.GameType,
		Config:       req.Config,
		Name:         req.Name,
		Description:  req.Description,
		CreatorID:    playerID,
		HumanPlayers: []gamemanager.HumanPlayer{{ID: playerID, Name: name}},
		AIPlayers:    aiPlayers,
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, state)
}

func (h *gameHandler) joinGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.GetPlayerIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	name, _ := auth.GetNameFromContext(r.Context())
	gameID := chi.URLParam(r, "gameID")

	var req JoinGameRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if err := validation.Validate(req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Name != "" {
		name = req.Name
	}

	state, err := h.gameManager.JoinGame(r.Context(), gamemanager.JoinGameCommand{
		GameID: gameID,
		Player: gamemanager.HumanPlayer{ID: playerID, Name: name},
	})
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, state)
}

func (h *gameHandler) getGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	state, err := h.gameManager.GetGame(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, state)
}

func (h *gameHandler) listGames(w http.ResponseWriter, r *http.Request) {
	playerID, _ := auth.GetPlayerIDFromContext(r.Context())
	q := r.URL.Query()

	filters := gamestate.Filters{
		Lifecycle: gamestate.Lifecycle(q.Get("lifecycle")),
		GameType:  q.Get("gameType"),
		Page:      atoiOrDefault(q.Get("page"), 1),
		PageSize:  atoiOrDefault(q.Get("pageSize"), 20),
	}
	if err := validation.ValidateRange(filters.Page, 1, 1_000_000, "page"); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateRange(filters.PageSize, 1, 100, "pageSize"); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var page gamestate.Page
	var err error
	if q.Get("mine") == "true" && playerID != "" {
		page, err = h.gameManager.ListGamesForPlayer(r.Context(), playerID, filters)
	} else {
		page, err = h.gameManager.ListGames(r.Context(), filters)
	}
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, page)
}

func (h *gameHandler) submitMove(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.GetPlayerIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	gameID := chi.URLParam(r, "gameID")

	var req SubmitMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validation.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	move := gamestate.Move{Action: req.Action, Parameters: req.Parameters}
	state, err := h.stateManager.ApplyMove(r.Context(), gameID, playerID, move, req.ExpectedVersion)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, state)
}

func (h *gameHandler) validateMove(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.GetPlayerIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	gameID := chi.URLParam(r, "gameID")

	var req ValidateMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validation.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	move := gamestate.Move{Action: req.Action, Parameters: req.Parameters}
	result, err := h.stateManager.ValidateMove(r.Context(), gameID, playerID, move)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// listEngines exposes the registered game types for client discovery.
func (h *gameHandler) listEngines(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, h.registry.List())
}

func atoiOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
