package client

import (
	"context"
	"net/http"

	"github.com/alecgard/groupdesk/internal/group"
)

// ListMembers returns the memberships of a group.
func (c *Client) ListMembers(ctx context.Context, groupID string) ([]group.Membership, error) {
	var members []group.Membership
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}/members",
		path:    "/groups/" + p(groupID) + "/members",
		out:     &members,
		keys:    listKeys("members"),
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember adds an existing user to a group.
func (c *Client) AddMember(ctx context.Context, groupID string, in group.AddMemberInput) (*group.Membership, error) {
	var m group.Membership
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups/{id}/members",
		path:    "/groups/" + p(groupID) + "/members",
		body:    in,
		out:     &m,
		keys:    itemKeys("member"),
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMember changes a member's role.
func (c *Client) UpdateMember(ctx context.Context, groupID, userID string, in group.UpdateMemberInput) (*group.Membership, error) {
	var m group.Membership
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPut,
		route:   "/groups/{id}/members/{userID}",
		path:    "/groups/" + p(groupID) + "/members/" + p(userID),
		body:    in,
		out:     &m,
		keys:    itemKeys("member"),
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveMember removes a user from a group.
func (c *Client) RemoveMember(ctx context.Context, groupID, userID string) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodDelete,
		route:   "/groups/{id}/members/{userID}",
		path:    "/groups/" + p(groupID) + "/members/" + p(userID),
	})
}
