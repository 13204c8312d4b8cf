package handler

import (
	"net/http"

	"github.com/mcoot/partygame/internal/api/middleware"
	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/services/history"
)

// PlayerHandler handles the signed-in user's own resources
type PlayerHandler struct {
	historyService *history.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(historyService *history.Service) *PlayerHandler {
	return &PlayerHandler{
		historyService: historyService,
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, user)
}

// GetProfile handles GET /api/v1/players/me/profile
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	profile, err := h.historyService.Profile(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// SaveGame handles POST /api/v1/games/history
func (h *PlayerHandler) SaveGame(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.SaveGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.historyService.Record(r.Context(), user.ID, model.GameType(req.Game), []string{user.DisplayName()}, req.Duration)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SaveGameResponse{Success: true, GameHistory: entry})
}
