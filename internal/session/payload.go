package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/alecgard/groupdesk/internal/group"
)

// Verification is the tri-state email verification flag. Payloads that omit
// the flag decode to VerificationUnknown.
type Verification string

const (
	VerificationUnknown    Verification = "unknown"
	VerificationVerified   Verification = "verified"
	VerificationUnverified Verification = "unverified"
)

func verificationOf(flags ...*bool) Verification {
	for _, f := range flags {
		if f == nil {
			continue
		}
		if *f {
			return VerificationVerified
		}
		return VerificationUnverified
	}
	return VerificationUnknown
}

// User is the canonical signed-in user record.
type User struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email,omitempty"`
	DisplayName        string             `json:"display_name,omitempty"`
	Verification       Verification       `json:"verification"`
	Memberships        []group.Membership `json:"memberships"`
	PendingInvitations int                `json:"pending_invitations"`
}

// Label returns the display name, falling back to email.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// RoleIn returns the user's role in the given group.
func (u *User) RoleIn(groupID string) (group.Role, bool) {
	if u == nil {
		return "", false
	}
	for _, m := range u.Memberships {
		if m.GroupID == groupID {
			return m.Role, true
		}
	}
	return "", false
}

// CapabilitiesForGroup resolves the caller's role in g, preferring the
// group's current_user_role, and returns what that role may do. Non-members
// and anonymous callers get the zero value.
func CapabilitiesForGroup(u *User, g *group.Group) group.Capabilities {
	var memberships []group.Membership
	if u != nil {
		memberships = u.Memberships
	}
	role, ok := group.ResolveRole(g, memberships)
	if !ok {
		return group.Capabilities{}
	}
	return group.CapabilitiesFor(role)
}

// Payload is one of the shapes the auth service answers GET /session with.
type Payload interface {
	User() *User
	isPayload()
}

// payloadFields are the user fields shared by both shapes.
type payloadFields struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	DisplayName        string             `json:"display_name"`
	Name               string             `json:"name"`
	Verified           *bool              `json:"verified"`
	EmailVerified      *bool              `json:"email_verified"`
	Memberships        []group.Membership `json:"memberships"`
	PendingInvitations int                `json:"pending_invitations"`
}

func (f *payloadFields) user() *User {
	if f.ID == "" && f.Email == "" {
		return nil
	}
	name := strings.TrimSpace(f.DisplayName)
	if name == "" {
		name = strings.TrimSpace(f.Name)
	}
	return &User{
		ID:                 f.ID,
		Email:              f.Email,
		DisplayName:        name,
		Verification:       verificationOf(f.Verified, f.EmailVerified),
		Memberships:        f.Memberships,
		PendingInvitations: f.PendingInvitations,
	}
}

// LegacyPayload wraps the user under a "client" key.
type LegacyPayload struct {
	Client payloadFields `json:"client"`
}

func (p *LegacyPayload) User() *User { return p.Client.user() }
func (*LegacyPayload) isPayload()    {}

// FlatPayload carries the user fields at the top level.
type FlatPayload struct {
	payloadFields
}

func (p *FlatPayload) User() *User { return p.payloadFields.user() }
func (*FlatPayload) isPayload()    {}

var errEmptyPayload = errors.New("empty session payload")

// DecodePayload picks the payload variant by the presence of a "client" key.
func DecodePayload(data []byte) (Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, errEmptyPayload
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decoding session payload: %w", err)
	}
	if inner, ok := top["data"]; ok && len(top) == 1 {
		return DecodePayload(inner)
	}

	if raw, ok := top["client"]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		var p LegacyPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding legacy session payload: %w", err)
		}
		return &p, nil
	}

	var p FlatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding session payload: %w", err)
	}
	return &p, nil
}
