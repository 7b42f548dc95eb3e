package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/groupdesk/internal/group"
)

func (h *Handler) MemberAdd(w http.ResponseWriter, r *http.Request) {
	const action = "member.add"
	id := chi.URLParam(r, "groupID")
	back := h.path("/groups/" + seg(id))
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

	m, err := h.client.AddMember(r.Context(), id, group.AddMemberInput{Email: email, Role: role})
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, m.Label()+" added as "+m.Role.Label()+".", "membership", id+"/"+m.UserID,
		"role", string(m.Role))
}

func (h *Handler) MemberSetRole(w http.ResponseWriter, r *http.Request) {
	const action = "member.update_role"
	id := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "memberID")
	back := h.path("/groups/" + seg(id))
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}
	role, err := group.ParseRole(formString(r.Form, "role"))
	if err != nil {
		h.actionRejected(w, r, action, back, "Choose a valid role.")
		return
	}

	m, err := h.client.UpdateMember(r.Context(), id, memberID, group.UpdateMemberInput{Role: role})
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, m.Label()+" is now "+m.Role.Label()+".", "membership", id+"/"+memberID,
		"role", string(role))
}

func (h *Handler) MemberRemoveConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "memberID")
	node := h.confirmPage(w, r, "Remove member",
		"Remove this member from the group? They will need a new invitation to rejoin.",
		h.path("/groups/"+seg(id)+"/members/"+seg(memberID)+"/remove"), "Remove member", h.path("/groups/"+seg(id)))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) MemberRemove(w http.ResponseWriter, r *http.Request) {
	const action = "member.remove"
	id := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "memberID")
	back := h.path("/groups/" + seg(id))
	if !h.confirmed(r) {
		h.record(action, "cancelled")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := h.client.RemoveMember(r.Context(), id, memberID); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Member removed.", "membership", id+"/"+memberID)
}
