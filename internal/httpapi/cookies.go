package httpapi

import (
	"net/http"
	"time"

	"labvault.app/internal/auth"
)

// Cookie names are part of the client contract; the dashboard reads neither
// (HttpOnly) but the browser routes them back on every request.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// setSessionCookies writes both credentials with max-ages matching their
// embedded expiries.
func (a *API) setSessionCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, a.sessionCookie(accessCookieName, pair.AccessToken, int(a.sessions.AccessTTL()/time.Second)))
	http.SetCookie(w, a.sessionCookie(refreshCookieName, pair.RefreshToken, int(a.sessions.RefreshTTL()/time.Second)))
}

// clearSessionCookies deletes both cookies. Deletion only takes effect when
// the scope attributes match those used at set time, so both paths go
// through sessionCookie.
func (a *API) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, a.sessionCookie(accessCookieName, "", -1))
	http.SetCookie(w, a.sessionCookie(refreshCookieName, "", -1))
}

func (a *API) sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
