package httpapi

import (
	"context"
	"errors"
	"net/http"

	"labvault.app/internal/auth"
	"labvault.app/internal/obs"
)

// Rejection reasons surfaced to clients. "expired" tells the dashboard to
// attempt a refresh; the other two force re-login.
const (
	reasonAccessMissing  = "access token missing"
	reasonAccessExpired  = "access token expired"
	reasonAccessInvalid  = "invalid access token"
	reasonRefreshMissing = "refresh token missing"
	reasonRefreshExpired = "refresh token expired"
	reasonRefreshInvalid = "invalid refresh token"
)

// withSession gates a handler behind a valid access token. On success the
// request context carries the resolved identity; every failure is a 401 with
// a machine-distinguishable reason.
func (a *API) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(accessCookieName)
		if err != nil || cookie.Value == "" {
			obs.SessionRejected("missing")
			writeError(w, r, http.StatusUnauthorized, reasonAccessMissing)
			return
		}

		claims, err := a.sessions.Verify(cookie.Value, auth.TokenKindAccess)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				obs.SessionRejected("expired")
				writeError(w, r, http.StatusUnauthorized, reasonAccessExpired)
				return
			}
			obs.SessionRejected("invalid")
			writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
			return
		}

		identity, err := a.resolveIdentity(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				// Deliberately indistinct from a bad signature: a valid-looking
				// token must not confirm whether an account ever existed.
				obs.SessionRejected("invalid")
				writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// resolveIdentity maps a subject id to its live identity, via the short
// positive cache when one is configured. Only id and email ever leave the
// store.
func (a *API) resolveIdentity(ctx context.Context, subjectID string) (auth.Identity, error) {
	if identity, ok := a.idCache.Get(subjectID); ok {
		return identity, nil
	}
	user, err := a.users.Find(ctx, subjectID)
	if err != nil {
		return auth.Identity{}, err
	}
	identity := auth.Identity{ID: user.ID, Email: user.Email}
	a.idCache.Add(identity)
	return identity, nil
}
