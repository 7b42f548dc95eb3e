package ui

import (
	"net/http"
	"time"

	"github.com/alecgard/groupdesk/internal/group"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func (h *Handler) invitationsPanel(r *http.Request, v groupDetailView) Node {
	base := h.path("/groups/" + seg(v.Group.ID))

	var list Node
	if len(v.Invitations) == 0 {
		list = emptyStateCard("No invitations have been sent for this group.")
	} else {
		rows := make([]Node, 0, len(v.Invitations))
		for _, inv := range v.Invitations {
			status := inv.EffectiveStatus(v.Now)
			var actions Node
			if inv.Actionable(v.Now) {
				actions = confirmButton(r, "revoke-"+inv.ID, "Revoke",
					"Revoke the invitation for "+inv.Email+"?", base+"/invitations/"+seg(inv.ID)+"/revoke")
			}
			var link Node
			if inv.Token != "" && status == group.InvitationPending {
				link = A(Href(h.path("/invitations/"+seg(inv.Token))), Class(mutedClass()), Text("link"))
			}
			rows = append(rows, Tr(
				Td(Text(inv.Email)),
				Td(Text(inv.Role.Label())),
				Td(invitationStatusLabel(status)),
				Td(Text(formatTime(inv.ExpiresAt))),
				Td(link),
				Td(actions),
			))
		}
		list = Div(Class(cardClass()), Table(
			Class("table"),
			THead(Tr(Th(Text("Email")), Th(Text("Role")), Th(Text("Status")), Th(Text("Expires")), Th(), Th())),
			TBody(Group(rows)),
		))
	}

	return Group([]Node{
		Div(
			Class(cardClass()),
			H2(Text("Invite someone")),
			Form(
				Method("post"),
				Action(base+"/invitations"),
				Class("inline-form"),
				csrfField(r),
				Input(Type("email"), Name("email"), Placeholder("person@example.com"), Required()),
				h.grantableRole(v.Caps),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Send invitation")),
			),
		),
		list,
	})
}

func (h *Handler) inboxBody(r *http.Request, invitations []group.Invitation, now time.Time) Node {
	if len(invitations) == 0 {
		return emptyStateCard("You have no invitations.")
	}
	rows := make([]Node, 0, len(invitations))
	for _, inv := range invitations {
		var actions Node
		if inv.Actionable(now) && inv.Token != "" {
			actions = postButton(r, h.path("/invitations/"+seg(inv.Token)+"/accept"), "Accept", "btn btn-sm btn-primary")
		}
		rows = append(rows, Tr(
			Td(Text(groupNameOf(inv.GroupName, inv.GroupID))),
			Td(Text(inv.Role.Label())),
			Td(invitationStatusLabel(inv.EffectiveStatus(now))),
			Td(Text(formatTime(inv.ExpiresAt))),
			Td(actions),
		))
	}
	return Div(Class(cardClass()), Table(
		Class("table"),
		THead(Tr(Th(Text("Group")), Th(Text("Role")), Th(Text("Status")), Th(Text("Expires")), Th())),
		TBody(Group(rows)),
	))
}

func (h *Handler) invitationBody(r *http.Request, inv *group.Invitation, token string, now time.Time) Node {
	status := inv.EffectiveStatus(now)

	var next Node
	switch {
	case !inv.Actionable(now):
		next = P(Class(mutedClass()), Text(invitationClosedMessage(status)))
	case currentUser(r) == nil:
		next = Group([]Node{
			P(Text("Sign in with "+inv.Email+" to accept.")),
			A(Href(h.loginHref(r)), Class(primaryButtonClass()), Text("Sign in to accept")),
		})
	default:
		next = postButton(r, h.path("/invitations/"+seg(token)+"/accept"), "Accept invitation", primaryButtonClass())
	}

	return Div(
		Class(cardClass()),
		H2(Text("You're invited to "+groupNameOf(inv.GroupName, inv.GroupID))),
		P(Text("Role: "+inv.Role.Label())),
		P(Text("Status: "), invitationStatusLabel(status)),
		P(Class(mutedClass()), Text("Expires "+formatTime(inv.ExpiresAt))),
		next,
	)
}

func invitationClosedMessage(s group.InvitationStatus) string {
	switch s {
	case group.InvitationAccepted:
		return "This invitation has already been accepted."
	case group.InvitationRevoked:
		return "This invitation was revoked."
	default:
		return "This invitation has expired. Ask a group manager for a new one."
	}
}
