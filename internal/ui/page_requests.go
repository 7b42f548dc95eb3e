package ui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alecgard/groupdesk/internal/group"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) requestsPanel(r *http.Request, v groupDetailView) Node {
	base := h.path("/groups/" + seg(v.Group.ID))
	if len(v.Requests) == 0 {
		return emptyStateCard("No one has asked to join yet.")
	}

	rows := make([]Node, 0, len(v.Requests))
	for _, req := range v.Requests {
		var actions Node
		if req.Actionable(v.Now) {
			actions = Div(
				Class("actions"),
				postButton(r, base+"/join-requests/"+seg(req.ID)+"/approve", "Approve", "btn btn-sm btn-primary",
					Input(Type("text"), Name("note"), Placeholder("Note (optional)"))),
				confirmButton(r, "deny-"+req.ID, "Deny",
					"Deny the request from "+req.Requester()+"?", base+"/join-requests/"+seg(req.ID)+"/deny"),
			)
		}
		rows = append(rows, Tr(
			Td(Text(req.Requester())),
			Td(Text(strOrDash(req.Message))),
			Td(requestStatusLabel(req.EffectiveStatus(v.Now))),
			Td(Text(formatTime(req.CreatedAt))),
			Td(actions),
		))
	}
	return Div(Class(cardClass()), Table(
		Class("table"),
		THead(Tr(Th(Text("Requester")), Th(Text("Message")), Th(Text("Status")), Th(Text("Requested")), Th())),
		TBody(Group(rows)),
	))
}

func (h *Handler) myRequestsBody(r *http.Request, requests []group.JoinRequest, now time.Time) Node {
	if len(requests) == 0 {
		return emptyStateCard("You have not asked to join any groups.")
	}
	rows := make([]Node, 0, len(requests))
	for _, req := range requests {
		var actions Node
		if req.Actionable(now) {
			actions = postButton(r, h.path("/join-requests/"+seg(req.ID)+"/cancel"), "Cancel request", "btn btn-sm")
		}
		rows = append(rows, Tr(
			Td(Text(groupNameOf(req.GroupName, req.GroupID))),
			Td(requestStatusLabel(req.EffectiveStatus(now))),
			Td(Text(formatTime(req.CreatedAt))),
			Td(Text(strOrDash(req.ReviewNote))),
			Td(actions),
		))
	}
	return Div(Class(cardClass()), Table(
		Class("table"),
		THead(Tr(Th(Text("Group")), Th(Text("Status")), Th(Text("Requested")), Th(Text("Note")), Th())),
		TBody(Group(rows)),
	))
}

type joinView struct {
	Group       group.PublicGroup
	Eligibility *group.JoinEligibility
	SignedIn    bool
	Now         time.Time
}

func publicGroupCard(g group.PublicGroup) Node {
	var description string
	if g.Description != nil {
		description = *g.Description
	}
	return Group([]Node{
		H2(Text(groupNameOf(g.Name, g.ID))),
		If(description != "", P(Text(description))),
		Div(Class("meta"),
			visibilityLabel(g.Visibility),
			Span(Text(strconv.Itoa(g.MemberCount)+" members")),
		),
	})
}

func (h *Handler) groupJoinBody(r *http.Request, v joinView) Node {
	var next Node
	switch {
	case v.Eligibility != nil && v.Eligibility.IsMember:
		next = P(Text("You are already a member. "), A(Href(h.path("/groups/"+seg(v.Group.ID))), Text("Open the group")))
	case v.Eligibility != nil && v.Eligibility.PendingRequest != nil && v.Eligibility.PendingRequest.Actionable(v.Now):
		next = P(Class(mutedClass()), Text("Your request is waiting for review. "), A(Href(h.path("/join-requests")), Text("View my requests")))
	case v.Group.Visibility != group.VisibilityPublic:
		next = P(Class(mutedClass()), Text("This group is invite-only."))
	case !v.SignedIn:
		next = A(Href(h.loginHref(r)), Class(primaryButtonClass()), Text("Sign in to request access"))
	default:
		next = Form(
			Method("post"),
			Action(h.path("/groups/"+seg(v.Group.ID)+"/join")),
			Class("stacked-form"),
			csrfField(r),
			Label(Text("Message to the managers (optional)")),
			Textarea(Name("message"), Rows("3")),
			Button(Type("submit"), Class(primaryButtonClass()), Text("Request to join")),
		)
	}
	return Div(Class(cardClass()), publicGroupCard(v.Group), next)
}

func (h *Handler) joinLinkBody(r *http.Request, link *group.JoinLink, sent bool, now time.Time) Node {
	var next Node
	switch {
	case sent:
		next = P(Text("Thanks! The group's managers will review your request."))
	case link.Expired(now):
		next = P(Class(mutedClass()), Text("This join link has expired."))
	default:
		var name, email string
		if u := currentUser(r); u != nil {
			name, email = u.DisplayName, u.Email
		}
		next = Form(
			Method("post"),
			Action(h.path("/join/"+seg(link.Token))),
			Class("stacked-form"),
			csrfField(r),
			Label(Text("Name")),
			Input(Name("name"), Value(name)),
			Label(Text("Email")),
			Input(Type("email"), Name("email"), Value(email), Required()),
			Label(Text("Message (optional)")),
			Textarea(Name("message"), Rows("3")),
			Button(Type("submit"), Class(primaryButtonClass()), Text("Send request")),
		)
	}

	var expires Node
	if link.ExpiresAt != nil {
		expires = P(Class(mutedClass()), Text("Link expires "+formatTimePtr(link.ExpiresAt)))
	}
	return Div(Class(cardClass()), publicGroupCard(link.Group), expires, next)
}
