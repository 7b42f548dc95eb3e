package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the UI on r. publicMiddleware wraps the routes
// reachable without signing in (token and link pages), typically a rate
// limiter.
func MountRoutes(r chi.Router, h *Handler, publicMiddleware ...func(http.Handler) http.Handler) {
	r.Handle("/static/*", h.Static())

	// Rate limiting runs first so rejected callers never reach the backend.
	r.Group(func(r chi.Router) {
		r.Use(publicMiddleware...)
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Use(h.Session)

		r.Get("/token", h.TokenPage)
		r.Post("/token", h.TokenSubmit)
		r.Get("/invitations/{token}", h.InvitationShow)
		r.Post("/invitations/{token}/accept", h.InvitationAccept)
		r.Get("/join/{token}", h.JoinLinkPage)
		r.Post("/join/{token}", h.JoinLinkSubmit)
		r.Get("/groups/{groupID}/join", h.GroupJoinPage)
		r.Post("/groups/{groupID}/join", h.GroupJoinSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Use(h.Session)

		r.Get("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser)
			r.Get("/", h.Dashboard)
			r.Get("/groups", h.GroupsList)
			r.Post("/groups", h.GroupCreate)
			r.Get("/groups/{groupID}", h.GroupDetail)
			r.Post("/groups/{groupID}/edit", h.GroupEdit)
			r.Get("/groups/{groupID}/delete", h.GroupDeleteConfirm)
			r.Post("/groups/{groupID}/delete", h.GroupDelete)
			r.Post("/groups/{groupID}/members", h.MemberAdd)
			r.Post("/groups/{groupID}/members/{memberID}/role", h.MemberSetRole)
			r.Get("/groups/{groupID}/members/{memberID}/remove", h.MemberRemoveConfirm)
			r.Post("/groups/{groupID}/members/{memberID}/remove", h.MemberRemove)
			r.Post("/groups/{groupID}/invitations", h.InvitationCreate)
			r.Get("/groups/{groupID}/invitations/{invitationID}/revoke", h.InvitationRevokeConfirm)
			r.Post("/groups/{groupID}/invitations/{invitationID}/revoke", h.InvitationRevoke)
			r.Post("/groups/{groupID}/join-requests/{requestID}/approve", h.JoinRequestApprove)
			r.Get("/groups/{groupID}/join-requests/{requestID}/deny", h.JoinRequestDenyConfirm)
			r.Post("/groups/{groupID}/join-requests/{requestID}/deny", h.JoinRequestDeny)
			r.Get("/invitations", h.InvitationsInbox)
			r.Get("/join-requests", h.MyJoinRequests)
			r.Post("/join-requests/{requestID}/cancel", h.JoinRequestCancel)
		})
	})
}

// Routes returns the UI as a standalone router, for mounting under a base
// path or serving directly in tests.
func (h *Handler) Routes(publicMiddleware ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	MountRoutes(r, h, publicMiddleware...)
	return r
}
