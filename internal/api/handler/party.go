package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mcoot/partygame/internal/api/middleware"
	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/model"
	"github.com/mcoot/partygame/internal/services/party"
)

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// PartyHandler handles party endpoints
type PartyHandler struct {
	registry  party.RegistryInterface
	publicURL string
	logger    *slog.Logger
}

// NewPartyHandler creates a new party handler. publicURL is the externally
// reachable base URL used in share links.
func NewPartyHandler(registry party.RegistryInterface, publicURL string, logger *slog.Logger) *PartyHandler {
	return &PartyHandler{
		registry:  registry,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger,
	}
}

// Create handles POST /api/v1/parties
func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreatePartyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.registry.Create(r.Context(), user.ID, user.DisplayName(), model.GameType(req.Game))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, p)
}

// Join handles POST /api/v1/parties/join. Only waiting parties accept players.
func (h *PartyHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.JoinPartyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.registry.GetByCode(r.Context(), req.Code)
	if err != nil {
		WriteError(w, err)
		return
	}
	if p.Status != model.PartyStatusWaiting {
		WriteError(w, model.ErrPartyNotWaiting)
		return
	}

	p, err = h.registry.Join(r.Context(), p.ID, user.ID, user.DisplayName(), user.Image)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Mine handles GET /api/v1/parties/mine
func (h *PartyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	parties, err := h.registry.ListForUser(r.Context(), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PartyListFromModel(parties))
}

// Get handles GET /api/v1/parties/{id}. This is the endpoint clients poll.
func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.GetByID(r.Context(), partyID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// GetByCode handles GET /api/v1/parties/code/{code}
func (h *PartyHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Leave handles POST /api/v1/parties/{id}/leave
func (h *PartyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	p, err := h.registry.Leave(r.Context(), partyID(r), user.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Start handles POST /api/v1/parties/{id}/start
func (h *PartyHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.setStatusAsHost(w, r, model.PartyStatusInProgress)
}

// Finish handles POST /api/v1/parties/{id}/finish
func (h *PartyHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.setStatusAsHost(w, r, model.PartyStatusFinished)
}

func (h *PartyHandler) setStatusAsHost(w http.ResponseWriter, r *http.Request, status model.PartyStatus) {
	user := middleware.MustGetUser(r.Context())
	id := partyID(r)

	if err := h.requireHost(r, id, user.ID); err != nil {
		WriteError(w, err)
		return
	}

	p, err := h.registry.SetStatus(r.Context(), id, status)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/parties/{id}
func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := partyID(r)

	if err := h.requireHost(r, id, user.ID); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// QR handles GET /api/v1/parties/{id}/qr?size=N and returns a PNG QR code
// of the party's join link
func (h *PartyHandler) QR(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			WriteError(w, NewInvalidRequestError(fmt.Sprintf("size must be between 64 and %d", maxQRSize)))
			return
		}
		size = n
	}

	p, err := h.registry.GetByID(r.Context(), partyID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(h.JoinURL(p.Code), qrcode.Medium, size)
	if err != nil {
		h.logger.Error("failed to encode QR code",
			slog.String("party_id", string(p.ID)),
			slog.Any("error", err),
		)
		WriteError(w, err)
		return
	}

	response.PNG(w, png)
}

// JoinURL returns the public link that pre-fills code on the join page
func (h *PartyHandler) JoinURL(code model.PartyCode) string {
	return h.publicURL + "/party?code=" + url.QueryEscape(string(code))
}

// requireHost fails with model.ErrNotHost unless userID hosts the party
func (h *PartyHandler) requireHost(r *http.Request, id model.PartyID, userID model.UserID) error {
	p, err := h.registry.GetByID(r.Context(), id)
	if err != nil {
		return err
	}
	if !p.IsHost(userID) {
		return model.ErrNotHost
	}
	return nil
}

func partyID(r *http.Request) model.PartyID {
	return model.PartyID(mux.Vars(r)["id"])
}
