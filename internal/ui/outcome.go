package ui

import (
	"log/slog"
	"net/http"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/requestid"
)

// loadFailed handles a failed read: a 401 goes to the login page, anything
// else renders the error page in place of the view.
func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	if u, ok := client.AsUnauthorized(err); ok {
		http.Redirect(w, r, u.LoginURL, http.StatusSeeOther)
		return
	}

	status := client.StatusCode(err)
	title := "Something went wrong"
	switch {
	case status == http.StatusNotFound:
		title = "Not found"
	case status == http.StatusForbidden:
		title = "Access denied"
	case status >= 400 && status < 500:
		title = "Request failed"
	default:
		status = http.StatusBadGateway
	}

	slog.Warn("ui load failed",
		"path", r.URL.Path,
		"status", client.StatusCode(err),
		"error", err,
		"request_id", requestid.FromContext(r.Context()),
	)
	renderHTML(w, status, h.appPage(w, r, title, "", h.errorCard(r, client.Message(err))))
}

// actionFailed reports a failed mutation as an error toast on the page the
// form came from. A 401 goes to the login page instead.
func (h *Handler) actionFailed(w http.ResponseWriter, r *http.Request, action, back string, err error) {
	if u, ok := client.AsUnauthorized(err); ok {
		h.record(action, "unauthorized")
		http.Redirect(w, r, u.LoginURL, http.StatusSeeOther)
		return
	}
	h.record(action, "error")
	slog.Warn("ui action failed",
		"action", action,
		"status", client.StatusCode(err),
		"error", err,
		"request_id", requestid.FromContext(r.Context()),
	)
	h.setFlash(w, flashError, client.Message(err))
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// actionRejected reports invalid form input without calling the backend.
func (h *Handler) actionRejected(w http.ResponseWriter, r *http.Request, action, back, message string) {
	h.record(action, "invalid")
	h.setFlash(w, flashError, message)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// actionSucceeded audits the mutation, queues a success toast and sends the
// browser to next, which re-fetches the affected data.
func (h *Handler) actionSucceeded(w http.ResponseWriter, r *http.Request, action, next, message, resourceType, resourceID string, detail ...any) {
	h.record(action, "success")
	auditLog(r, action, resourceType, resourceID, detail...)
	h.setFlash(w, flashSuccess, message)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// auditLog emits a structured audit entry for a mutation made through the UI.
func auditLog(r *http.Request, action, resourceType, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", r.RemoteAddr,
		"request_id", requestid.FromContext(r.Context()),
	}
	if u := currentUser(r); u != nil {
		attrs = append(attrs, "user_id", u.ID, "user_email", u.Email)
	}
	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
