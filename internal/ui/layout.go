package ui

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alecgard/groupdesk/internal/group"
	"github.com/alecgard/groupdesk/internal/session"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

type navItem struct {
	Label string
	Href  string
	Key   string
}

func (h *Handler) navItems(user *session.User) []navItem {
	invitations := "Invitations"
	if user != nil && user.PendingInvitations > 0 {
		invitations += " (" + strconv.Itoa(user.PendingInvitations) + ")"
	}
	return []navItem{
		{Label: "Dashboard", Href: h.path("/"), Key: "home"},
		{Label: "Groups", Href: h.path("/groups"), Key: "groups"},
		{Label: invitations, Href: h.path("/invitations"), Key: "invitations"},
		{Label: "My requests", Href: h.path("/join-requests"), Key: "requests"},
	}
}

func (h *Handler) head(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | groupdesk")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href(h.path("/static/app.css"))),
		Script(Type("module"), Src(datastarScript)),
	)
}

// appPage wraps body in the application shell. It consumes the pending
// toast, so it must run before the response status is written.
func (h *Handler) appPage(w http.ResponseWriter, r *http.Request, title, active string, body ...Node) Node {
	user := currentUser(r)
	toast := h.popFlash(w, r)

	var nav []Node
	if user != nil {
		for _, item := range h.navItems(user) {
			className := "app-nav-link"
			if item.Key == active {
				className += " active"
			}
			nav = append(nav, A(Href(item.Href), Class(className), Text(item.Label)))
		}
	}

	return HTML(
		Lang("en"),
		h.head(title),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(Class("brand"), A(Href(h.path("/")), Strong(Text("groupdesk")))),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						h.accountBox(r, user),
					),
					toastNode(toast),
					Div(
						Class("content"),
						data.Signals(map[string]any{"confirming": ""}),
						Group(body),
					),
				),
			),
		),
	)
}

func (h *Handler) accountBox(r *http.Request, user *session.User) Node {
	if user == nil {
		if mgr := session.FromContext(r.Context()); mgr != nil && mgr.Err() != nil && !sessionRejected(mgr) {
			return P(Class(mutedClass()), Text("Session unavailable."))
		}
		return A(Href(h.loginHref(r)), Class(primaryButtonClass()), Text("Sign in"))
	}

	var badge Node
	if user.Verification == session.VerificationUnverified {
		badge = statusLabel("email not verified", "attention")
	}
	return Div(
		Class("account"),
		P(Class(mutedClass()), Text("Signed in as "+user.Label()), badge),
		Form(
			Method("post"),
			Action(h.path("/logout")),
			csrfField(r),
			Button(Type("submit"), Class("btn btn-sm"), Text("Sign out")),
		),
	)
}

func (h *Handler) loginHref(r *http.Request) string {
	return h.path("/login") + "?next=" + url.QueryEscape(r.URL.RequestURI())
}

func toastNode(f *flash) Node {
	if f == nil {
		return nil
	}
	return Div(Class("toast toast-"+f.Kind), Attr("role", "status"), Text(f.Message))
}

// errorPage is the bare page used when the shell itself cannot be built.
func (h *Handler) errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		h.head(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href(h.path("/")), Text("Back to dashboard"))),
			),
		),
	)
}

func (h *Handler) errorCard(r *http.Request, message string) Node {
	return Div(
		Class(cardClass("card-error")),
		P(Text(message)),
		A(Href(r.URL.RequestURI()), Class(secondaryButtonClass()), Text("Try again")),
	)
}

// confirmPage is the confirmation step for a destructive action. Nothing is
// sent to the backend until its form is submitted.
func (h *Handler) confirmPage(w http.ResponseWriter, r *http.Request, title, message, action, label, cancel string) Node {
	return h.appPage(w, r, title, "",
		Div(
			Class(cardClass()),
			P(Text(message)),
			Form(
				Method("post"),
				Action(action),
				csrfField(r),
				Input(Type("hidden"), Name("confirm"), Value("yes")),
				Div(
					Class("actions"),
					Button(Type("submit"), Class(dangerButtonClass()), Text(label)),
					A(Href(cancel), Class(secondaryButtonClass()), Text("Cancel")),
				),
			),
		),
	)
}

// confirmButton opens an in-page confirmation dialog. Without script the
// link falls through to the confirmation page at action.
func confirmButton(r *http.Request, key, label, message, action string) Node {
	quoted := strconv.Quote(key)
	return Div(
		Class("confirm"),
		A(
			Href(action),
			Class(dangerButtonClass()+" btn-sm"),
			Attr("data-on:click__prevent", "$confirming = "+quoted),
			Text(label),
		),
		Div(
			Class("confirm-dialog"),
			Attr("role", "dialog"),
			Attr("style", "display: none"),
			data.Show("$confirming === "+quoted),
			P(Text(message)),
			Form(
				Method("post"),
				Action(action),
				csrfField(r),
				Input(Type("hidden"), Name("confirm"), Value("yes")),
				Button(Type("submit"), Class(dangerButtonClass()), Text(label)),
				Button(Type("button"), Class(secondaryButtonClass()), Attr("data-on:click", "$confirming = ''"), Text("Cancel")),
			),
		),
	)
}

// postButton is a single-button form for non-destructive actions.
func postButton(r *http.Request, action, label, className string, fields ...Node) Node {
	return Form(
		Class("inline-form"),
		Method("post"),
		Action(action),
		csrfField(r),
		Group(fields),
		Button(Type("submit"), Class(className), Text(label)),
	)
}

func quickFilterCard(placeholder string, extraControls ...Node) Node {
	controls := []Node{
		Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
	}
	controls = append(controls, extraControls...)
	return Div(
		Class(cardClass("toolbar")),
		Div(Class("toolbar-row"), Group(controls)),
	)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func emptyStateCard(message string) Node {
	return Div(Class(cardClass("blankslate")), P(Class(mutedClass()), Text(message)))
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func invitationStatusLabel(s group.InvitationStatus) Node {
	switch s {
	case group.InvitationPending:
		return statusLabel("pending", "accent")
	case group.InvitationAccepted:
		return statusLabel("accepted", "success")
	case group.InvitationExpired:
		return statusLabel("expired", "muted")
	default:
		return statusLabel(string(s), "danger")
	}
}

func requestStatusLabel(s group.JoinRequestStatus) Node {
	switch s {
	case group.JoinRequestPending:
		return statusLabel("pending", "accent")
	case group.JoinRequestApproved:
		return statusLabel("approved", "success")
	case group.JoinRequestExpired:
		return statusLabel("expired", "muted")
	default:
		return statusLabel(string(s), "danger")
	}
}

func visibilityLabel(v group.Visibility) Node {
	if v == group.VisibilityPublic {
		return statusLabel("public", "success")
	}
	return statusLabel("private", "muted")
}

func roleSelect(name string, selected group.Role) Node {
	options := make([]Node, 0, len(group.Roles))
	for _, role := range group.Roles {
		options = append(options, Option(Value(string(role)), Text(role.Label()), If(role == selected, Selected())))
	}
	return Select(Name(name), Group(options))
}

func visibilitySelect(name string, selected group.Visibility) Node {
	return Select(
		Name(name),
		Option(Value(string(group.VisibilityPrivate)), Text("Private (invite only)"), If(selected != group.VisibilityPublic, Selected())),
		Option(Value(string(group.VisibilityPublic)), Text("Public (anyone can request to join)"), If(selected == group.VisibilityPublic, Selected())),
	)
}

func cardClass(extra ...string) string {
	parts := []string{"card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "muted"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func dangerButtonClass() string {
	return "btn btn-danger"
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04")
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return formatTime(*ts)
}

func strOrDash(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "-"
	}
	return *v
}
