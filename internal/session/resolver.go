package session

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/safar/go-cart-store/internal/models"
)

// CookieName carries the anonymous session id for the lifetime of a
// browsing session.
const CookieName = "cart_session"

// UserHeader is set by the auth front for authenticated requests.
// Authentication itself happens upstream of this service.
const UserHeader = "X-User-ID"

// Resolver yields the request's identity: the authenticated user when the
// auth front vouches for one, otherwise the anonymous session, minting a
// session id on first touch.
type Resolver struct{}

func (Resolver) Resolve(w http.ResponseWriter, r *http.Request) (models.Identity, error) {
	if v := r.Header.Get(UserHeader); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || userID < 1 {
			return models.Identity{}, fmt.Errorf("malformed %s header %q", UserHeader, v)
		}
		return models.Authenticated(userID), nil
	}
	return models.Anonymous(EnsureSession(w, r)), nil
}

// SessionID returns the request's session id without creating one. Empty
// when the browser carries no session cookie.
func (Resolver) SessionID(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// EnsureSession returns the request's session id, minting and setting a
// new one when the cookie is absent. The id is stable for the browsing
// session.
func EnsureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}

// ClearSession expires the session cookie, used after a login merge has
// consumed the session cart.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
