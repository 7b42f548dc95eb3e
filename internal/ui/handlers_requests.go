package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/groupdesk/internal/group"
)

func (h *Handler) JoinRequestApprove(w http.ResponseWriter, r *http.Request) {
	const action = "join_request.approve"
	id := chi.URLParam(r, "groupID")
	requestID := chi.URLParam(r, "requestID")
	back := h.path("/groups/" + seg(id) + "?tab=" + tabRequests)
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}

	in := group.ReviewInput{Note: formOptionalString(r.Form, "note")}
	if err := h.client.ApproveJoinRequest(r.Context(), id, requestID, in); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Request approved.", "join_request", requestID, "group_id", id)
}

func (h *Handler) JoinRequestDenyConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	requestID := chi.URLParam(r, "requestID")
	node := h.confirmPage(w, r, "Deny request",
		"Deny this join request? The requester will be told it was declined.",
		h.path("/groups/"+seg(id)+"/join-requests/"+seg(requestID)+"/deny"), "Deny request",
		h.path("/groups/"+seg(id)+"?tab="+tabRequests))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) JoinRequestDeny(w http.ResponseWriter, r *http.Request) {
	const action = "join_request.deny"
	id := chi.URLParam(r, "groupID")
	requestID := chi.URLParam(r, "requestID")
	back := h.path("/groups/" + seg(id) + "?tab=" + tabRequests)
	if !h.confirmed(r) {
		h.record(action, "cancelled")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	in := group.ReviewInput{Note: formOptionalString(r.Form, "note")}
	if err := h.client.DenyJoinRequest(r.Context(), id, requestID, in); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Request denied.", "join_request", requestID, "group_id", id)
}

// MyJoinRequests lists the caller's own join requests.
func (h *Handler) MyJoinRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.client.ListMyJoinRequests(r.Context())
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	node := h.appPage(w, r, "My join requests", "requests", h.myRequestsBody(r, requests, h.now()))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) JoinRequestCancel(w http.ResponseWriter, r *http.Request) {
	const action = "join_request.cancel"
	requestID := chi.URLParam(r, "requestID")
	back := h.path("/join-requests")
	if err := h.client.CancelJoinRequest(r.Context(), requestID); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Request cancelled.", "join_request", requestID)
}

// GroupJoinPage lets a visitor ask to join a public group. Signed-in callers
// see their eligibility; anonymous visitors see the public group card.
func (h *Handler) GroupJoinPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	view := joinView{SignedIn: currentUser(r) != nil, Now: h.now()}

	if view.SignedIn {
		el, err := h.client.GetJoinEligibility(r.Context(), id)
		if err != nil {
			h.loadFailed(w, r, err)
			return
		}
		view.Eligibility = el
		view.Group = el.Group
	} else {
		g, err := h.client.GetPublicGroup(r.Context(), id)
		if err != nil {
			h.loadFailed(w, r, err)
			return
		}
		view.Group = *g
	}
	if view.Group.ID == "" {
		view.Group.ID = id
	}

	node := h.appPage(w, r, "Join "+groupNameOf(view.Group.Name, id), "groups", h.groupJoinBody(r, view))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) GroupJoinSubmit(w http.ResponseWriter, r *http.Request) {
	const action = "join_request.create"
	id := chi.URLParam(r, "groupID")
	back := h.path("/groups/" + seg(id) + "/join")
	if currentUser(r) == nil {
		h.redirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}

	req, err := h.client.RequestToJoin(r.Context(), id, group.JoinRequestInput{Message: formOptionalString(r.Form, "message")})
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	resourceID := id
	if req != nil && req.ID != "" {
		resourceID = req.ID
	}
	h.actionSucceeded(w, r, action, h.path("/join-requests"), "Your request has been sent to the group's managers.", "join_request", resourceID,
		"group_id", id)
}

// JoinLinkPage is the public page behind a shareable join link.
func (h *Handler) JoinLinkPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	link, err := h.client.GetJoinLink(r.Context(), token)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	sent := r.URL.Query().Get("sent") == "1"
	node := h.appPage(w, r, "Join "+groupNameOf(link.Group.Name, link.Group.ID), "", h.joinLinkBody(r, link, sent, h.now()))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) JoinLinkSubmit(w http.ResponseWriter, r *http.Request) {
	const action = "join_link.submit"
	token := chi.URLParam(r, "token")
	back := h.path("/join/" + seg(token))
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}

	in := group.JoinLinkInput{
		Name:    formString(r.Form, "name"),
		Email:   formString(r.Form, "email"),
		Message: formOptionalString(r.Form, "message"),
	}
	if u := currentUser(r); u != nil {
		if in.Email == "" {
			in.Email = u.Email
		}
		if in.Name == "" {
			in.Name = u.DisplayName
		}
	}
	if in.Email == "" {
		h.actionRejected(w, r, action, back, "Email is required.")
		return
	}

	req, err := h.client.SubmitJoinLink(r.Context(), token, in)
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	resourceID := token
	if req != nil && req.ID != "" {
		resourceID = req.ID
	}
	h.actionSucceeded(w, r, action, back+"?sent=1", "Your request has been sent.", "join_request", resourceID)
}
