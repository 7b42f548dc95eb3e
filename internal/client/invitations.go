package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/alecgard/groupdesk/internal/group"
)

// ListInvitations returns a group's invitations.
func (c *Client) ListInvitations(ctx context.Context, groupID string) ([]group.Invitation, error) {
	var invs []group.Invitation
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}/invitations",
		path:    "/groups/" + p(groupID) + "/invitations",
		out:     &invs,
		keys:    listKeys("invitations"),
	})
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// CreateInvitation invites an email address to a group.
func (c *Client) CreateInvitation(ctx context.Context, groupID string, in group.CreateInvitationInput) (*group.Invitation, error) {
	var inv group.Invitation
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups/{id}/invitations",
		path:    "/groups/" + p(groupID) + "/invitations",
		body:    in,
		out:     &inv,
		keys:    itemKeys("invitation"),
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// RevokeInvitation revokes a pending invitation.
func (c *Client) RevokeInvitation(ctx context.Context, groupID, invitationID string) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodDelete,
		route:   "/groups/{id}/invitations/{invitationID}",
		path:    "/groups/" + p(groupID) + "/invitations/" + p(invitationID),
	})
}

// ListMyInvitations returns the invitations addressed to the caller.
func (c *Client) ListMyInvitations(ctx context.Context) ([]group.Invitation, error) {
	var invs []group.Invitation
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/invitations/my",
		path:    "/invitations/my",
		out:     &invs,
		keys:    listKeys("invitations"),
	})
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// GetInvitation looks up an invitation by its token. No sign-in required.
func (c *Client) GetInvitation(ctx context.Context, token string) (*group.Invitation, error) {
	var inv group.Invitation
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/invitations/{token}",
		path:    "/invitations/" + p(token),
		out:     &inv,
		keys:    itemKeys("invitation"),
	})
	if err != nil {
		return nil, invalidLink(err)
	}
	return &inv, nil
}

// AcceptInvitation accepts an invitation as the signed-in user. The returned
// membership is nil when the backend answers without a body.
func (c *Client) AcceptInvitation(ctx context.Context, token string) (*group.Membership, error) {
	var m group.Membership
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/invitations/{token}/accept",
		path:    "/invitations/" + p(token) + "/accept",
		out:     &m,
		keys:    itemKeys("membership"),
	})
	if err != nil {
		return nil, invalidLink(err)
	}
	if m.GroupID == "" {
		return nil, nil
	}
	return &m, nil
}

// invalidLink rewrites a 404 on a token-addressed resource into the
// "invalid or expired" message.
func invalidLink(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Code:       "invalid_link",
			Message:    InvalidLinkMessage,
			Body:       apiErr.Body,
			Err:        ErrInvalidOrExpired,
		}
	}
	return err
}
