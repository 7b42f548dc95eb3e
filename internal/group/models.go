package group

import "time"

// Visibility controls how users can join a group.
type Visibility string

const (
	// VisibilityPublic groups accept join requests.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate groups are invite-only.
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility returns the visibility named by s, defaulting to private.
func ParseVisibility(s string) Visibility {
	if Visibility(s) == VisibilityPublic {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

// Group is a named collection of users.
type Group struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     *string      `json:"description,omitempty"`
	Visibility      Visibility   `json:"visibility"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	CreatedBy       string       `json:"created_by,omitempty"`
	MemberCount     int          `json:"member_count"`
	RoleCounts      map[Role]int `json:"role_counts,omitempty"`
	CurrentUserRole *Role        `json:"current_user_role,omitempty"`
}

// IsPublic reports whether the group accepts join requests.
func (g *Group) IsPublic() bool {
	return g.Visibility == VisibilityPublic
}

// PublicGroup is the subset of a group shown to unauthenticated visitors.
type PublicGroup struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	MemberCount int        `json:"member_count"`
}

// Membership pairs a user with a group at a role.
type Membership struct {
	GroupID     string    `json:"group_id"`
	GroupName   string    `json:"group_name,omitempty"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	AddedBy     string    `json:"added_by,omitempty"`
}

// Label returns the best available name for the member.
func (m *Membership) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.Email != "" {
		return m.Email
	}
	return m.UserID
}

// JoinEligibility describes whether the current user may request to join a group.
type JoinEligibility struct {
	Group          PublicGroup  `json:"group"`
	IsMember       bool         `json:"is_member"`
	PendingRequest *JoinRequest `json:"pending_request,omitempty"`
}

// CreateGroupInput holds the fields for creating a group. An empty
// Description is omitted from the request body entirely.
type CreateGroupInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
}

// NewCreateGroupInput builds a CreateGroupInput, defaulting visibility to
// private and dropping a blank description.
func NewCreateGroupInput(name, description string, visibility Visibility) CreateGroupInput {
	in := CreateGroupInput{Name: name, Visibility: visibility}
	if in.Visibility != VisibilityPublic {
		in.Visibility = VisibilityPrivate
	}
	if description != "" {
		in.Description = &description
	}
	return in
}

// UpdateGroupInput holds optional fields for a partial group update.
type UpdateGroupInput struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Visibility  *Visibility `json:"visibility,omitempty"`
}

// AddMemberInput adds an existing user to a group.
type AddMemberInput struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UpdateMemberInput changes a member's role.
type UpdateMemberInput struct {
	Role Role `json:"role"`
}

// CreateInvitationInput invites an email address at a role.
type CreateInvitationInput struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// JoinRequestInput is the body of an authenticated request to join.
type JoinRequestInput struct {
	Message *string `json:"message,omitempty"`
}

// JoinLinkInput is the body of a public, token-based join request.
type JoinLinkInput struct {
	Name    string  `json:"name,omitempty"`
	Email   string  `json:"email"`
	Message *string `json:"message,omitempty"`
}

// ReviewInput carries an optional note when approving or denying a request.
type ReviewInput struct {
	Note *string `json:"note,omitempty"`
}

// ListGroupsParams filters the group list.
type ListGroupsParams struct {
	Visibility Visibility
	Query      string
}

// JoinLink is what a shareable join token resolves to.
type JoinLink struct {
	Token     string      `json:"token"`
	Group     PublicGroup `json:"group"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// Expired reports whether the link's expiry has passed.
func (l *JoinLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
