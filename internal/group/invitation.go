package group

import "time"

// InvitationStatus is the server-side state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation is a token-bearing, time-limited offer to join a group.
type Invitation struct {
	ID        string           `json:"id"`
	GroupID   string           `json:"group_id"`
	GroupName string           `json:"group_name,omitempty"`
	Email     string           `json:"email"`
	Role      Role             `json:"role"`
	Token     string           `json:"token,omitempty"`
	Status    InvitationStatus `json:"status"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
	InvitedBy string           `json:"invited_by,omitempty"`
}

// EffectiveStatus is the status to display at now. A pending invitation
// whose expiry has passed reads as expired even before the server updates it.
// It never authorizes anything; the server decides.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now) {
		return InvitationExpired
	}
	return i.Status
}

// Actionable reports whether accept/revoke should be offered at now.
func (i *Invitation) Actionable(now time.Time) bool {
	return i.EffectiveStatus(now) == InvitationPending
}

// JoinRequestStatus is the server-side state of a join request.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestDenied   JoinRequestStatus = "denied"
	JoinRequestExpired  JoinRequestStatus = "expired"
)

// JoinRequest is a user-initiated request to join a group.
type JoinRequest struct {
	ID             string            `json:"id"`
	GroupID        string            `json:"group_id"`
	GroupName      string            `json:"group_name,omitempty"`
	RequesterID    string            `json:"requester_id,omitempty"`
	RequesterEmail string            `json:"requester_email,omitempty"`
	RequesterName  string            `json:"requester_name,omitempty"`
	Message        *string           `json:"message,omitempty"`
	Status         JoinRequestStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	ReviewedBy     string            `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time        `json:"reviewed_at,omitempty"`
	ReviewNote     *string           `json:"review_note,omitempty"`
}

// EffectiveStatus applies the same client-side expiry rule as invitations.
func (j *JoinRequest) EffectiveStatus(now time.Time) JoinRequestStatus {
	if j.Status == JoinRequestPending && j.ExpiresAt != nil && j.ExpiresAt.Before(now) {
		return JoinRequestExpired
	}
	return j.Status
}

// Actionable reports whether approve/deny/cancel should be offered at now.
func (j *JoinRequest) Actionable(now time.Time) bool {
	return j.EffectiveStatus(now) == JoinRequestPending
}

// Requester returns the best available label for whoever asked to join.
func (j *JoinRequest) Requester() string {
	if j.RequesterName != "" {
		return j.RequesterName
	}
	if j.RequesterEmail != "" {
		return j.RequesterEmail
	}
	return j.RequesterID
}

// PendingRequests returns the requests still actionable at now.
func PendingRequests(reqs []JoinRequest, now time.Time) []JoinRequest {
	out := make([]JoinRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.Actionable(now) {
			out = append(out, r)
		}
	}
	return out
}
