package ui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alecgard/groupdesk/internal/group"
	"github.com/alecgard/groupdesk/internal/session"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type groupRow struct {
	Group  group.Group
	Role   group.Role
	Member bool
}

type dashboardView struct {
	User        *session.User
	Groups      []groupRow
	Invitations []group.Invitation
	Requests    []group.JoinRequest
	Now         time.Time
}

func (h *Handler) dashboardBody(r *http.Request, v dashboardView) Node {
	var groups Node
	if len(v.Groups) == 0 {
		groups = emptyStateCard("You are not a member of any group yet.")
	} else {
		rows := make([]Node, 0, len(v.Groups))
		for _, row := range v.Groups {
			rows = append(rows, Tr(
				Td(A(Href(h.path("/groups/"+seg(row.Group.ID))), Text(row.Group.Name))),
				Td(Text(row.Role.Label())),
				Td(Text(strconv.Itoa(row.Group.MemberCount))),
			))
		}
		groups = Table(
			Class("table"),
			THead(Tr(Th(Text("Group")), Th(Text("Your role")), Th(Text("Members")))),
			TBody(Group(rows)),
		)
	}

	var invitations Node
	if len(v.Invitations) == 0 {
		invitations = P(Class(mutedClass()), Text("No pending invitations."))
	} else {
		items := make([]Node, 0, len(v.Invitations))
		for _, inv := range v.Invitations {
			items = append(items, Li(
				Text(groupNameOf(inv.GroupName, inv.GroupID)+" as "+inv.Role.Label()+" "),
				Span(Class(mutedClass()), Text("expires "+formatTime(inv.ExpiresAt))),
			))
		}
		invitations = Group([]Node{
			Ul(Group(items)),
			A(Href(h.path("/invitations")), Text("Review invitations")),
		})
	}

	var requests Node
	if len(v.Requests) == 0 {
		requests = P(Class(mutedClass()), Text("No pending join requests."))
	} else {
		items := make([]Node, 0, len(v.Requests))
		for _, req := range v.Requests {
			items = append(items, Li(Text(groupNameOf(req.GroupName, req.GroupID)+" "), Span(Class(mutedClass()), Text("sent "+formatTime(req.CreatedAt)))))
		}
		requests = Group([]Node{
			Ul(Group(items)),
			A(Href(h.path("/join-requests")), Text("View my requests")),
		})
	}

	return Group([]Node{
		Div(Class(cardClass()), H2(Text("Your groups")), groups,
			P(A(Href(h.path("/groups")), Text("Browse all groups")))),
		Div(Class("grid-2"),
			Div(Class(cardClass()), H2(Text("Pending invitations")), invitations),
			Div(Class(cardClass()), H2(Text("Pending join requests")), requests),
		),
	})
}

func groupNameOf(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func (h *Handler) groupsBody(r *http.Request, rows []groupRow, params group.ListGroupsParams) Node {
	filter := Form(
		Method("get"),
		Action(h.path("/groups")),
		Class("inline-form"),
		Select(
			Name("visibility"),
			Option(Value(""), Text("All groups"), If(params.Visibility == "", Selected())),
			Option(Value(string(group.VisibilityPublic)), Text("Public"), If(params.Visibility == group.VisibilityPublic, Selected())),
			Option(Value(string(group.VisibilityPrivate)), Text("Private"), If(params.Visibility == group.VisibilityPrivate, Selected())),
		),
		Button(Type("submit"), Class(secondaryButtonClass()), Text("Apply")),
	)

	var list Node
	if len(rows) == 0 {
		list = emptyStateCard("No groups match.")
	} else {
		tableRows := make([]Node, 0, len(rows))
		for _, row := range rows {
			role := "-"
			if row.Member {
				role = row.Role.Label()
			}
			var join Node
			if !row.Member && row.Group.IsPublic() {
				join = A(Href(h.path("/groups/"+seg(row.Group.ID)+"/join")), Class("btn btn-sm"), Text("Request to join"))
			}
			tableRows = append(tableRows, Tr(
				data.Show(containsExpr(row.Group.Name+" "+strOrDash(row.Group.Description))),
				Td(A(Href(h.path("/groups/"+seg(row.Group.ID))), Text(row.Group.Name))),
				Td(visibilityLabel(row.Group.Visibility)),
				Td(Text(strconv.Itoa(row.Group.MemberCount))),
				Td(Text(role)),
				Td(join),
			))
		}
		list = Div(Class(cardClass()), Table(
			Class("table"),
			THead(Tr(Th(Text("Name")), Th(Text("Visibility")), Th(Text("Members")), Th(Text("Your role")), Th())),
			TBody(Group(tableRows)),
		))
	}

	return Div(
		data.Signals(map[string]any{"q": ""}),
		quickFilterCard("Filter groups", filter),
		list,
		Div(
			Class(cardClass()),
			H2(Text("Create a group")),
			Form(
				Method("post"),
				Action(h.path("/groups")),
				Class("stacked-form"),
				csrfField(r),
				Label(Text("Name")),
				Input(Name("name"), Required(), MaxLength("100")),
				Label(Text("Description")),
				Textarea(Name("description"), Rows("3")),
				Label(Text("Visibility")),
				visibilitySelect("visibility", group.VisibilityPrivate),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Create group")),
			),
		),
	)
}

type groupDetailView struct {
	Group       *group.Group
	Members     []group.Membership
	Invitations []group.Invitation
	Requests    []group.JoinRequest
	Self        *session.User
	Role        group.Role
	IsMember    bool
	Caps        group.Capabilities
	Tab         string
	Now         time.Time
}

func (h *Handler) groupDetailBody(r *http.Request, v groupDetailView) Node {
	g := v.Group
	base := h.path("/groups/" + seg(g.ID))

	yourRole := "Not a member"
	if v.IsMember {
		yourRole = v.Role.Label()
	}
	summary := Div(
		Class(cardClass()),
		P(Text(strOrDash(g.Description))),
		Div(Class("meta"),
			visibilityLabel(g.Visibility),
			Span(Text(strconv.Itoa(g.MemberCount)+" members")),
			Span(Text("Your role: "+yourRole)),
			Span(Class(mutedClass()), Text("Created "+formatTime(g.CreatedAt))),
		),
		If(!v.IsMember && g.IsPublic(), A(Href(base+"/join"), Class(primaryButtonClass()), Text("Request to join"))),
	)

	var manage []Node
	if v.Caps.CanEditGroup {
		manage = append(manage, Details(
			Summary(Text("Edit group")),
			Form(
				Method("post"),
				Action(base+"/edit"),
				Class("stacked-form"),
				csrfField(r),
				Label(Text("Name")),
				Input(Name("name"), Value(g.Name), Required(), MaxLength("100")),
				Label(Text("Description")),
				Textarea(Name("description"), Rows("3"), Text(descriptionOf(g))),
				Label(Text("Visibility")),
				visibilitySelect("visibility", g.Visibility),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Save changes")),
			),
		))
	}
	if v.Caps.CanDeleteGroup {
		manage = append(manage, Div(Class("danger-zone"),
			confirmButton(r, "delete-group", "Delete group",
				"Delete "+g.Name+"? This cannot be undone.", base+"/delete"),
		))
	}
	var manageCard Node
	if len(manage) > 0 {
		manageCard = Div(Class(cardClass()), Group(manage))
	}

	tabs := []Node{tabLink(base, tabMembers, "Members ("+strconv.Itoa(len(v.Members))+")", v.Tab)}
	if v.Caps.CanViewInvitations {
		tabs = append(tabs, tabLink(base, tabInvitations, "Invitations", v.Tab))
	}
	if v.Caps.CanReviewRequests {
		pending := len(group.PendingRequests(v.Requests, v.Now))
		tabs = append(tabs, tabLink(base, tabRequests, "Join requests ("+strconv.Itoa(pending)+")", v.Tab))
	}

	var panel Node
	switch v.Tab {
	case tabInvitations:
		panel = h.invitationsPanel(r, v)
	case tabRequests:
		panel = h.requestsPanel(r, v)
	default:
		panel = h.membersPanel(r, v)
	}

	return Group([]Node{
		summary,
		manageCard,
		Nav(Class("tabs"), Group(tabs)),
		panel,
	})
}

func tabLink(base, key, label, active string) Node {
	className := "tab"
	if key == active {
		className += " active"
	}
	return A(Href(base+"?tab="+key), Class(className), Text(label))
}

func descriptionOf(g *group.Group) string {
	if g.Description == nil {
		return ""
	}
	return *g.Description
}

func (h *Handler) membersPanel(r *http.Request, v groupDetailView) Node {
	base := h.path("/groups/" + seg(v.Group.ID))

	rows := make([]Node, 0, len(v.Members))
	for _, m := range v.Members {
		self := v.Self != nil && m.UserID == v.Self.ID

		var role Node = Text(m.Role.Label())
		if v.Caps.CanManageRoles && !self {
			role = Form(
				Class("inline-form"),
				Method("post"),
				Action(base+"/members/"+seg(m.UserID)+"/role"),
				csrfField(r),
				roleSelect("role", m.Role),
				Button(Type("submit"), Class("btn btn-sm"), Text("Update")),
			)
		}

		var remove Node
		if v.Caps.CanRemoveMembers && !self {
			remove = confirmButton(r, "remove-"+m.UserID, "Remove",
				"Remove "+m.Label()+" from "+v.Group.Name+"?", base+"/members/"+seg(m.UserID)+"/remove")
		}

		rows = append(rows, Tr(
			data.Show(containsExpr(m.Label()+" "+m.Email+" "+string(m.Role))),
			Td(Text(m.Label()), If(self, Span(Class(mutedClass()), Text(" (you)")))),
			Td(Text(m.Email)),
			Td(role),
			Td(Text(formatTime(m.JoinedAt))),
			Td(remove),
		))
	}

	var add Node
	if v.Caps.CanInvite {
		add = Div(
			Class(cardClass()),
			H2(Text("Add a member")),
			Form(
				Method("post"),
				Action(base+"/members"),
				Class("inline-form"),
				csrfField(r),
				Input(Type("email"), Name("email"), Placeholder("person@example.com"), Required()),
				h.grantableRole(v.Caps),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Add")),
			),
		)
	}

	return Div(
		data.Signals(map[string]any{"q": ""}),
		quickFilterCard("Filter members"),
		Div(Class(cardClass()), Table(
			Class("table"),
			THead(Tr(Th(Text("Name")), Th(Text("Email")), Th(Text("Role")), Th(Text("Joined")), Th())),
			TBody(Group(rows)),
		)),
		add,
	)
}

// grantableRole renders the role picker for new members and invitations.
// Callers who cannot manage roles may only add plain members.
func (h *Handler) grantableRole(c group.Capabilities) Node {
	if !c.CanManageRoles {
		return Input(Type("hidden"), Name("role"), Value(string(group.RoleMember)))
	}
	return roleSelect("role", group.RoleMember)
}
