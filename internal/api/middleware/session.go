package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the browser cookie holding the signed session token
	SessionCookieName = "partygame_session"
	tokenValueKey     = "token"
)

// CookieSessions stores session tokens in a signed browser cookie
type CookieSessions struct {
	store *sessions.CookieStore
}

// NewCookieSessions creates a cookie store signed with key. An empty key
// generates a random one, which invalidates cookies across restarts.
func NewCookieSessions(key []byte, maxAge time.Duration, secure bool) *CookieSessions {
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessions{store: store}
}

// Token returns the session token from the request cookie, or ""
func (c *CookieSessions) Token(r *http.Request) string {
	session, err := c.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenValueKey].(string)
	return token
}

// Save writes token into the session cookie
func (c *CookieSessions) Save(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := c.store.Get(r, SessionCookieName)
	session.Values[tokenValueKey] = token
	return session.Save(r, w)
}

// Clear expires the session cookie
func (c *CookieSessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := c.store.Get(r, SessionCookieName)
	delete(session.Values, tokenValueKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
