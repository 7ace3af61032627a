package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"labvault.app/internal/audit"
	"labvault.app/internal/auth"
	"labvault.app/internal/obs"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func userToResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 8

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}
	if !emailPattern.MatchString(email) {
		writeError(w, r, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	user := &auth.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}
	if err := a.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	pair, err := a.sessions.IssuePair(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session issuance failed")
		return
	}
	a.setSessionCookies(w, pair)
	obs.SessionIssued("register")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userToResponse(user),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			// Burn the same bcrypt cost as a real comparison so the response
			// time does not reveal whether the email exists.
			_ = auth.VerifyDummyPassword(req.Password)
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := a.sessions.IssuePair(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session issuance failed")
		return
	}
	a.setSessionCookies(w, pair)
	obs.SessionIssued("login")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userToResponse(user),
	})
}

// handleLogout clears the session cookies unconditionally. With stateless
// tokens there is nothing to revoke server-side; the cached identity is
// dropped on a best-effort basis so a follow-up delete takes effect sooner.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if cookie, err := r.Cookie(accessCookieName); err == nil && cookie.Value != "" {
		if claims, err := a.sessions.Verify(cookie.Value, auth.TokenKindAccess); err == nil {
			a.idCache.Remove(claims.Subject)
			_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
				"user_id": claims.Subject,
			})
		}
	}

	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "logged_out",
	})
}

// handleRefresh exchanges a valid refresh token for a brand-new cookie pair.
// A missing cookie leaves existing cookies untouched; a present-but-bad one
// clears both so the client cannot keep retrying a dead session.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		obs.SessionRejected("missing")
		writeError(w, r, http.StatusUnauthorized, reasonRefreshMissing)
		return
	}

	claims, err := a.sessions.Verify(cookie.Value, auth.TokenKindRefresh)
	if err != nil {
		a.clearSessionCookies(w)
		if errors.Is(err, auth.ErrTokenExpired) {
			obs.SessionRejected("expired")
			writeError(w, r, http.StatusUnauthorized, reasonRefreshExpired)
			return
		}
		obs.SessionRejected("invalid")
		writeError(w, r, http.StatusUnauthorized, reasonRefreshInvalid)
		return
	}

	user, err := a.users.Find(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			a.clearSessionCookies(w)
			obs.SessionRejected("invalid")
			writeError(w, r, http.StatusUnauthorized, reasonRefreshInvalid)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return
	}

	pair, err := a.sessions.IssuePair(user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session issuance failed")
		return
	}
	a.setSessionCookies(w, pair)
	obs.SessionIssued("refresh")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": user.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "refreshed",
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
		return
	}

	user, err := a.users.Find(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userToResponse(user),
	})
}
