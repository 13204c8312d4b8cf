package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partygame/internal/api/handler"
	"github.com/mcoot/partygame/internal/api/middleware"
	"github.com/mcoot/partygame/internal/services/auth"
	"github.com/mcoot/partygame/internal/services/history"
	"github.com/mcoot/partygame/internal/services/party"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	PartyRegistry  party.RegistryInterface
	HistoryService *history.Service
	// Cookies stores browser session tokens (optional)
	Cookies *middleware.CookieSessions
	// SignInSecret, when set, must accompany sign-in requests
	SignInSecret string
	// PublicURL is the externally reachable base URL for share links
	PublicURL string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Cookies, cfg.SignInSecret)
	playerHandler := handler.NewPlayerHandler(cfg.HistoryService)
	partyHandler := handler.NewPartyHandler(cfg.PartyRegistry, cfg.PublicURL, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.Cookies)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService, cfg.Cookies)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes
	api.HandleFunc("/auth/signin", authHandler.SignIn).Methods(http.MethodPost)
	signOut := api.PathPrefix("/auth/signout").Subrouter()
	signOut.Use(optionalAuthMiddleware)
	signOut.HandleFunc("", authHandler.SignOut).Methods(http.MethodPost)

	// Protected player routes
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/me/profile", playerHandler.GetProfile).Methods(http.MethodGet)

	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("/history", playerHandler.SaveGame).Methods(http.MethodPost)

	// Public party routes. Clients poll GET /parties/{id} without a session.
	api.HandleFunc("/parties/code/{code}", partyHandler.GetByCode).Methods(http.MethodGet)
	api.HandleFunc("/parties/{id}/qr", partyHandler.QR).Methods(http.MethodGet)

	// Party routes requiring auth
	parties := api.PathPrefix("/parties").Subrouter()
	parties.Use(authMiddleware)
	parties.HandleFunc("", partyHandler.Create).Methods(http.MethodPost)
	parties.HandleFunc("/join", partyHandler.Join).Methods(http.MethodPost)
	parties.HandleFunc("/mine", partyHandler.Mine).Methods(http.MethodGet)
	parties.HandleFunc("/{id}/leave", partyHandler.Leave).Methods(http.MethodPost)
	parties.HandleFunc("/{id}/start", partyHandler.Start).Methods(http.MethodPost)
	parties.HandleFunc("/{id}/finish", partyHandler.Finish).Methods(http.MethodPost)
	parties.HandleFunc("/{id}", partyHandler.Delete).Methods(http.MethodDelete)

	// Registered after the auth subrouter so /parties/mine wins over /parties/{id}
	api.HandleFunc("/parties/{id}", partyHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
