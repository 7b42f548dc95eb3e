package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alecgard/groupdesk/internal/group"
)

// ListGroups returns the groups visible to the caller.
func (c *Client) ListGroups(ctx context.Context, params group.ListGroupsParams) ([]group.Group, error) {
	q := url.Values{}
	if params.Visibility != "" {
		q.Set("visibility", string(params.Visibility))
	}
	if params.Query != "" {
		q.Set("q", params.Query)
	}

	var groups []group.Group
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups",
		path:    "/groups",
		query:   q,
		out:     &groups,
		keys:    listKeys("groups"),
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group; the caller becomes its administrator.
func (c *Client) CreateGroup(ctx context.Context, in group.CreateGroupInput) (*group.Group, error) {
	var g group.Group
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups",
		path:    "/groups",
		body:    in,
		out:     &g,
		keys:    itemKeys("group"),
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGroup fetches one group.
func (c *Client) GetGroup(ctx context.Context, id string) (*group.Group, error) {
	var g group.Group
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}",
		path:    "/groups/" + p(id),
		out:     &g,
		keys:    itemKeys("group"),
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGroup applies a partial update.
func (c *Client) UpdateGroup(ctx context.Context, id string, in group.UpdateGroupInput) (*group.Group, error) {
	var g group.Group
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPut,
		route:   "/groups/{id}",
		path:    "/groups/" + p(id),
		body:    in,
		out:     &g,
		keys:    itemKeys("group"),
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodDelete,
		route:   "/groups/{id}",
		path:    "/groups/" + p(id),
	})
}

// GetPublicGroup fetches the public view of a group. No sign-in required.
func (c *Client) GetPublicGroup(ctx context.Context, id string) (*group.PublicGroup, error) {
	var g group.PublicGroup
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}/public",
		path:    "/groups/" + p(id) + "/public",
		out:     &g,
		keys:    itemKeys("group"),
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}
