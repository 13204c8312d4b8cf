package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/mcoot/partygame/internal/api/middleware"
	"github.com/mcoot/partygame/internal/api/request"
	"github.com/mcoot/partygame/internal/api/response"
	"github.com/mcoot/partygame/internal/services/auth"
)

// SignInSecretHeader carries the shared secret of the OAuth front end
const SignInSecretHeader = "X-Signin-Secret"

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	authService  *auth.Service
	cookies      *middleware.CookieSessions
	signInSecret string
}

// NewAuthHandler creates a new auth handler. When signInSecret is set,
// sign-in requests must present it in the X-Signin-Secret header.
func NewAuthHandler(authService *auth.Service, cookies *middleware.CookieSessions, signInSecret string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookies:      cookies,
		signInSecret: signInSecret,
	}
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h.signInSecret != "" {
		presented := r.Header.Get(SignInSecretHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.signInSecret)) != 1 {
			WriteError(w, NewUnauthorizedError())
			return
		}
	}

	var req request.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.SignIn(r.Context(), auth.Identity{
		Subject: req.Subject,
		Email:   req.Email,
		Name:    req.Name,
		Image:   req.Image,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	if h.cookies != nil {
		if err := h.cookies.Save(w, r, session.Token); err != nil {
			WriteError(w, err)
			return
		}
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session != nil {
		h.authService.InvalidateSession(session.Token)
	}
	if h.cookies != nil {
		_ = h.cookies.Clear(w, r)
	}
	response.NoContent(w)
}
