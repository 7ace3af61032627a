package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"labvault.app/internal/audit"
	"labvault.app/internal/auth"
	"labvault.app/internal/reports"
)

func (a *API) handleReportUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read file")
		return
	}

	report, err := a.reports.Upload(r.Context(), identity.ID, header.Filename, data)
	if err != nil {
		handleReportError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "report.upload", map[string]any{
		"report_id": report.ID,
		"file_name": report.OriginalFileName,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"report": report,
	})
}

// handleReportsByUser serves /v1/reports/user/{userId} and its /trends
// sub-resource. Users may only read their own data.
func (a *API) handleReportsByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/reports/user/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	userID := path
	trends := false
	if strings.HasSuffix(path, "/trends") {
		userID = strings.TrimSuffix(path, "/trends")
		trends = true
	}
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if userID != identity.ID {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}

	if trends {
		points, err := a.reports.Trends(r.Context(), userID, r.URL.Query().Get("parameter"))
		if err != nil {
			handleReportError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"trends": points,
		})
		return
	}

	list, err := a.reports.ListByUser(r.Context(), userID)
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": list,
	})
}

// handleReportResource serves /v1/reports/{id} (GET, DELETE) and
// /v1/reports/{id}/insights (GET).
func (a *API) handleReportResource(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, reasonAccessInvalid)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	id := path
	insights := false
	if strings.HasSuffix(path, "/insights") {
		id = strings.TrimSuffix(path, "/insights")
		insights = true
	}
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	report, err := a.reports.Get(r.Context(), id)
	if err != nil {
		handleReportError(w, r, err)
		return
	}
	if report.UserID != identity.ID {
		// Hide the report's existence from other accounts.
		writeError(w, r, http.StatusNotFound, "report not found")
		return
	}

	if insights {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		result, err := a.reports.Insights(r.Context(), id)
		if err != nil {
			handleReportError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"insights": result,
		})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"report": report,
		})
	case http.MethodDelete:
		if err := a.reports.Delete(r.Context(), id); err != nil {
			handleReportError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "report.delete", map[string]any{
			"report_id": id,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "deleted",
		})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func handleReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "report not found")
	case errors.Is(err, reports.ErrUnsupportedFile):
		writeError(w, r, http.StatusUnsupportedMediaType, "unsupported file type")
	case errors.Is(err, reports.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, reports.ErrNotReady):
		writeError(w, r, http.StatusConflict, "report still processing")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
