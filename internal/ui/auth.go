package ui

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/session"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Login sends the browser to the auth service's login page. The optional
// next parameter names the local page to come back to.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = h.path("/")
	}
	http.Redirect(w, r, h.client.LoginURL(h.absoluteURL(r, next)), http.StatusSeeOther)
}

// Logout ends the backend session, forgets any stored token and follows the
// auth service's redirect.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)

	home := h.absoluteURL(r, h.path("/"))
	mgr := session.FromContext(r.Context())
	if mgr == nil {
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	auditLog(r, "session.logout", "session", "")
	target, err := mgr.Logout(r.Context(), home)
	if err != nil {
		h.record("session.logout", "error")
		slog.Warn("logout failed", "error", err)
	} else {
		h.record("session.logout", "success")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// TokenPage lets a user paste an API bearer token instead of using the
// auth service's cookie session.
func (h *Handler) TokenPage(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(tokenCookieName)
	hasToken := err == nil
	node := h.appPage(w, r, "API token", "", Div(
		Class(cardClass()),
		P(Text("Paste a bearer token issued by the authentication service. It is kept in an encrypted, HTTP-only cookie on this browser.")),
		Form(
			Method("post"),
			Action(h.path("/token")),
			Class("stacked-form"),
			csrfField(r),
			Label(Text("Token")),
			Textarea(Name("token"), Rows("4"), Placeholder("eyJ...")),
			Button(Type("submit"), Class(primaryButtonClass()), Text("Save token")),
		),
		If(hasToken, postButton(r, h.path("/token"), "Forget stored token", secondaryButtonClass(),
			Input(Type("hidden"), Name("clear"), Value("yes")))),
	))
	renderHTML(w, http.StatusOK, node)
}

// TokenSubmit stores or clears the bearer token, then refreshes the session
// with it so a rejected token is reported straight away.
func (h *Handler) TokenSubmit(w http.ResponseWriter, r *http.Request) {
	const action = "session.token"
	back := h.path("/token")
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}
	if formBool(r.Form, "clear") {
		h.clearTokenCookie(w)
		h.actionSucceeded(w, r, action, back, "Stored token removed.", "session", "")
		return
	}

	token := formString(r.Form, "token")
	if token == "" {
		h.actionRejected(w, r, action, back, "Token is required.")
		return
	}

	mgr := session.FromContext(r.Context())
	if mgr == nil {
		mgr = session.NewManager(h.client)
	}
	creds := client.CredentialsFromContext(r.Context())
	creds.BearerToken = token
	if err := mgr.Refresh(client.WithCredentials(r.Context(), creds)); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	user := mgr.User()
	if user == nil {
		h.actionRejected(w, r, action, back, "That token was not accepted.")
		return
	}

	if err := h.setTokenCookie(w, token); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, h.path("/"), "Signed in as "+user.Label()+".", "session", user.ID)
}
