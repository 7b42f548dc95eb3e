package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alecgard/groupdesk/internal/group"
	"github.com/alecgard/groupdesk/internal/session"
)

const (
	tabMembers     = "members"
	tabInvitations = "invitations"
	tabRequests    = "requests"
)

// Dashboard loads the caller's groups, invitations and join requests in
// order. A failed read stops the page; later reads are not attempted.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groups, err := h.client.ListGroups(ctx, group.ListGroupsParams{})
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	invitations, err := h.client.ListMyInvitations(ctx)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	requests, err := h.client.ListMyJoinRequests(ctx)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}

	view := dashboardView{User: currentUser(r), Now: h.now()}
	for i := range groups {
		if role, ok := group.ResolveRole(&groups[i], view.User.Memberships); ok {
			view.Groups = append(view.Groups, groupRow{Group: groups[i], Role: role, Member: true})
		}
	}
	for _, inv := range invitations {
		if inv.Actionable(view.Now) {
			view.Invitations = append(view.Invitations, inv)
		}
	}
	view.Requests = group.PendingRequests(requests, view.Now)

	node := h.appPage(w, r, "Dashboard", "home", h.dashboardBody(r, view))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) GroupsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := group.ListGroupsParams{Query: q.Get("q")}
	switch v := group.Visibility(q.Get("visibility")); v {
	case group.VisibilityPublic, group.VisibilityPrivate:
		params.Visibility = v
	}

	groups, err := h.client.ListGroups(r.Context(), params)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}

	user := currentUser(r)
	rows := make([]groupRow, 0, len(groups))
	for i := range groups {
		role, ok := group.ResolveRole(&groups[i], user.Memberships)
		rows = append(rows, groupRow{Group: groups[i], Role: role, Member: ok})
	}

	node := h.appPage(w, r, "Groups", "groups", h.groupsBody(r, rows, params))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) GroupCreate(w http.ResponseWriter, r *http.Request) {
	const action = "group.create"
	back := h.path("/groups")
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}
	name := formString(r.Form, "name")
	if name == "" {
		h.actionRejected(w, r, action, back, "Group name is required.")
		return
	}
	in := group.NewCreateGroupInput(name, formString(r.Form, "description"), group.ParseVisibility(formString(r.Form, "visibility")))

	g, err := h.client.CreateGroup(r.Context(), in)
	if err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, h.path("/groups/"+seg(g.ID)), "Group \""+g.Name+"\" created.", "group", g.ID,
		"visibility", string(g.Visibility))
}

// GroupDetail loads group, then members, then (when the caller may see
// them) invitations and join requests. The first failure stops the chain.
func (h *Handler) GroupDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "groupID")

	g, err := h.client.GetGroup(ctx, id)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	members, err := h.client.ListMembers(ctx, id)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}

	user := currentUser(r)
	view := groupDetailView{
		Group:   g,
		Members: members,
		Self:    user,
		Now:     h.now(),
	}
	view.Role, view.IsMember = callerRole(user, g, members)
	if view.IsMember {
		view.Caps = group.CapabilitiesFor(view.Role)
	}

	if view.Caps.CanViewInvitations {
		view.Invitations, err = h.client.ListInvitations(ctx, id)
		if err != nil {
			h.loadFailed(w, r, err)
			return
		}
	}
	if view.Caps.CanReviewRequests {
		view.Requests, err = h.client.ListJoinRequests(ctx, id, "")
		if err != nil {
			h.loadFailed(w, r, err)
			return
		}
	}

	view.Tab = tabMembers
	switch tab := r.URL.Query().Get("tab"); {
	case tab == tabInvitations && view.Caps.CanViewInvitations:
		view.Tab = tab
	case tab == tabRequests && view.Caps.CanReviewRequests:
		view.Tab = tab
	}

	node := h.appPage(w, r, g.Name, "groups", h.groupDetailBody(r, view))
	renderHTML(w, http.StatusOK, node)
}

// callerRole resolves the caller's role in g from the group itself, the
// session memberships, or the member list, in that order.
func callerRole(user *session.User, g *group.Group, members []group.Membership) (group.Role, bool) {
	if user == nil {
		return "", false
	}
	memberships := append([]group.Membership(nil), user.Memberships...)
	for _, m := range members {
		if m.UserID != "" && m.UserID == user.ID {
			m.GroupID = g.ID
			memberships = append(memberships, m)
		}
	}
	return group.ResolveRole(g, memberships)
}

func (h *Handler) GroupEdit(w http.ResponseWriter, r *http.Request) {
	const action = "group.update"
	id := chi.URLParam(r, "groupID")
	back := h.path("/groups/" + seg(id))
	if err := r.ParseForm(); err != nil {
		h.actionRejected(w, r, action, back, "Unable to read the form.")
		return
	}

	var in group.UpdateGroupInput
	if name := formString(r.Form, "name"); name != "" {
		in.Name = &name
	}
	if _, ok := r.Form["description"]; ok {
		description := formString(r.Form, "description")
		in.Description = &description
	}
	if raw := formString(r.Form, "visibility"); raw != "" {
		v := group.ParseVisibility(raw)
		in.Visibility = &v
	}
	if in.Name == nil && in.Description == nil && in.Visibility == nil {
		h.actionRejected(w, r, action, back, "Nothing to update.")
		return
	}

	if _, err := h.client.UpdateGroup(r.Context(), id, in); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, back, "Group updated.", "group", id)
}

func (h *Handler) GroupDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "groupID")
	node := h.confirmPage(w, r, "Delete group",
		"Delete this group? All memberships, invitations and join requests go with it. This cannot be undone.",
		h.path("/groups/"+seg(id)+"/delete"), "Delete group", h.path("/groups/"+seg(id)))
	renderHTML(w, http.StatusOK, node)
}

func (h *Handler) GroupDelete(w http.ResponseWriter, r *http.Request) {
	const action = "group.delete"
	id := chi.URLParam(r, "groupID")
	back := h.path("/groups/" + seg(id))
	if !h.confirmed(r) {
		h.record(action, "cancelled")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := h.client.DeleteGroup(r.Context(), id); err != nil {
		h.actionFailed(w, r, action, back, err)
		return
	}
	h.actionSucceeded(w, r, action, h.path("/groups"), "Group deleted.", "group", id)
}

// confirmed reports whether a destructive form carried confirm=yes.
func (h *Handler) confirmed(r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		return false
	}
	return formBool(r.Form, "confirm")
}
