package group

// Capabilities is the set of management actions the UI offers for a role.
// It gates presentation only; the backend re-checks every permission.
type Capabilities struct {
	CanInvite          bool
	CanEditGroup       bool
	CanDeleteGroup     bool
	CanManageRoles     bool
	CanRemoveMembers   bool
	CanReviewRequests  bool
	CanViewInvitations bool
}

// CapabilitiesFor returns the capabilities granted by role. Unknown roles
// and plain members get none.
func CapabilitiesFor(role Role) Capabilities {
	var c Capabilities
	if role.AtLeast(RoleManager) {
		c.CanInvite = true
		c.CanEditGroup = true
		c.CanRemoveMembers = true
		c.CanReviewRequests = true
		c.CanViewInvitations = true
	}
	if role.AtLeast(RoleAdministrator) {
		c.CanDeleteGroup = true
		c.CanManageRoles = true
	}
	return c
}

// Any reports whether at least one management capability is granted.
func (c Capabilities) Any() bool {
	return c != Capabilities{}
}

// ResolveRole picks the caller's role in g: the group's own
// current_user_role when the backend supplied one, otherwise the role found
// in memberships. ok is false when the caller is not a member.
func ResolveRole(g *Group, memberships []Membership) (Role, bool) {
	if g != nil && g.CurrentUserRole != nil && g.CurrentUserRole.Valid() {
		return *g.CurrentUserRole, true
	}
	if g == nil {
		return "", false
	}
	for _, m := range memberships {
		if m.GroupID == g.ID && m.Role.Valid() {
			return m.Role, true
		}
	}
	return "", false
}
