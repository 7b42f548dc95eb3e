package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/groupdesk/internal/group"
)

func (h *Handler) InvitationCreate(w http.ResponseWriter, r *http.Request) {
	const action = "invitation.create"
	id := chi.URLParam(r, "groupID")
	back := h.path("/groups/" + seg(id) + "?tab=" + tabInvitations)
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}
	email := formString(r.Form, "email")
	if email == "" {
		h.actionRejected(w, r, action, back, "Email is required.")
		return
	}
	role, err := group.ParseRole(formString(r.Form, "role"))
	if err != nil {
		h.actionRejected(w, r, action, back, "Choose a valid role.")
		return
	}

	inv, err := h.client.CreateInvitation(r.Context(), id, group.CreateInvitationInput{Email: email, Role: role})
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Invitation sent to "+inv.Email+".", "invitation", inv.ID,
		"group_id", id, "role", string(inv.Role))
}

func (h *Handler) InvitationRevokeConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	invitationID := chi.URLParam(r, "invitationID")
	node := h.confirmPage(w, r, "Revoke invitation",
		"Revoke this invitation? Its link will stop working.",
		h.path("/groups/"+seg(id)+"/invitations/"+seg(invitationID)+"/revoke"), "Revoke invitation",
		h.path("/groups/"+seg(id)+"?tab="+tabInvitations))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) InvitationRevoke(w http.ResponseWriter, r *http.Request) {
	const action = "invitation.revoke"
	id := chi.URLParam(r, "groupID")
	invitationID := chi.URLParam(r, "invitationID")
	back := h.path("/groups/" + seg(id) + "?tab=" + tabInvitations)
	if !h.confirmed(r) {
		h.record(action, "cancelled")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := h.client.RevokeInvitation(r.Context(), id, invitationID); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Invitation revoked.", "invitation", invitationID, "group_id", id)
}

// InvitationsInbox lists invitations addressed to the caller.
func (h *Handler) InvitationsInbox(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.client.ListMyInvitations(r.Context())
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	node := h.appPage(w, r, "Invitations", "invitations", h.inboxBody(r, invitations, h.now()))
	renderHTML(w, http.StatusOK, node)
}

// InvitationShow is the public landing page for an invitation link.
func (h *Handler) InvitationShow(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	inv, err := h.client.GetInvitation(r.Context(), token)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	node := h.appPage(w, r, "Invitation", "", h.invitationBody(r, inv, token, h.now()))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) InvitationAccept(w http.ResponseWriter, r *http.Request) {
	const action = "invitation.accept"
	token := chi.URLParam(r, "token")
	back := h.path("/invitations/" + seg(token))
	if currentUser(r) == nil {
		h.redirectToLogin(w, r)
		return
	}

	m, err := h.client.AcceptInvitation(r.Context(), token)
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	next := h.path("/invitations")
	if m != nil && m.GroupID != "" {
		next = h.path("/groups/" + seg(m.GroupID))
	}
	h.actionSucceeded(w, r, action, next, "Invitation accepted. Welcome aboard!", "invitation", token)
}
