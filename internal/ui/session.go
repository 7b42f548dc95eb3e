package ui

import (
	"net/http"
	"strings"
	"time"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/session"
)

const (
	tokenCookieName = "gd_token"
	tokenCookieTTL  = 7 * 24 * time.Hour
)

// Session attaches the caller's credentials and a freshly initialised
// session manager to the request. The manager lives and dies with the
// request, so nothing a slow lookup returns can leak into another page.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := client.WithCredentials(r.Context(), h.credentials(r))
		ctx = client.WithReturnURL(ctx, h.absoluteURL(r, h.returnPath(r)))

		mgr := session.NewManager(h.client)
		if h.metrics != nil {
			mgr.SetMetrics(h.metrics)
		}
		// A failed lookup is kept on the manager; pages decide what to show.
		_ = mgr.Init(ctx)

		next.ServeHTTP(w, r.WithContext(session.NewContext(ctx, mgr)))
	})
}

// RequireUser lets signed-in callers through. Anonymous callers, and callers
// whose credentials the auth service rejected, are sent to the login page.
// Any other failed session lookup renders the error page instead.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mgr := session.FromContext(r.Context())
		if mgr != nil && mgr.User() != nil {
			next.ServeHTTP(w, r)
			return
		}
		if sessionRejected(mgr) {
			// The stored token no longer works; drop it so the next visit
			// starts clean.
			h.clearTokenCookie(w)
			h.redirectToLogin(w, r)
			return
		}
		if mgr != nil && mgr.Err() != nil {
			renderHTML(w, http.StatusBadGateway, h.errorPage("Session unavailable",
				"We couldn't load your session. Please try again in a moment."))
			return
		}
		h.redirectToLogin(w, r)
	})
}

// sessionRejected reports whether the session lookup failed with a 401.
func sessionRejected(mgr *session.Manager) bool {
	return mgr != nil && client.StatusCode(mgr.Err()) == http.StatusUnauthorized
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.client.LoginURL(client.ReturnURLFromContext(r.Context())), http.StatusSeeOther)
}

// credentials collects the bearer token stored by the token page and any
// backend session cookies the browser holds.
func (h *Handler) credentials(r *http.Request) client.Credentials {
	var creds client.Credentials
	if ck, err := r.Cookie(tokenCookieName); err == nil && ck.Value != "" {
		if token, err := h.sealer.Open(tokenCookieName, ck.Value); err == nil {
			creds.BearerToken = strings.TrimSpace(token)
		}
	}
	for _, name := range h.forwardCookies {
		if ck, err := r.Cookie(name); err == nil && ck.Value != "" {
			creds.Cookies = append(creds.Cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	return creds
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) error {
	sealed, err := h.sealer.Seal(tokenCookieName, token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    sealed,
		Path:     h.cookiePath(),
		Expires:  h.now().Add(tokenCookieTTL),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})
}

func currentUser(r *http.Request) *session.User {
	return session.UserFromContext(r.Context())
}
