package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alecgard/groupdesk/internal/group"
)

// ListJoinRequests returns a group's join requests, optionally filtered by status.
func (c *Client) ListJoinRequests(ctx context.Context, groupID string, status group.JoinRequestStatus) ([]group.JoinRequest, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}

	var reqs []group.JoinRequest
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}/join-requests",
		path:    "/groups/" + p(groupID) + "/join-requests",
		query:   q,
		out:     &reqs,
		keys:    listKeys("join_requests"),
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// ApproveJoinRequest approves a pending request.
func (c *Client) ApproveJoinRequest(ctx context.Context, groupID, requestID string, in group.ReviewInput) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups/{id}/join-requests/{requestID}/approve",
		path:    "/groups/" + p(groupID) + "/join-requests/" + p(requestID) + "/approve",
		body:    in,
	})
}

// DenyJoinRequest denies a pending request.
func (c *Client) DenyJoinRequest(ctx context.Context, groupID, requestID string, in group.ReviewInput) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups/{id}/join-requests/{requestID}/deny",
		path:    "/groups/" + p(groupID) + "/join-requests/" + p(requestID) + "/deny",
		body:    in,
	})
}

// ListMyJoinRequests returns the caller's own join requests.
func (c *Client) ListMyJoinRequests(ctx context.Context) ([]group.JoinRequest, error) {
	var reqs []group.JoinRequest
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/join-requests/my",
		path:    "/join-requests/my",
		out:     &reqs,
		keys:    listKeys("join_requests"),
	})
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// CancelJoinRequest withdraws one of the caller's pending requests.
func (c *Client) CancelJoinRequest(ctx context.Context, requestID string) error {
	return c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/join-requests/{requestID}/cancel",
		path:    "/join-requests/" + p(requestID) + "/cancel",
	})
}

// GetJoinEligibility reports whether the caller may ask to join a group.
func (c *Client) GetJoinEligibility(ctx context.Context, groupID string) (*group.JoinEligibility, error) {
	var el group.JoinEligibility
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/groups/{id}/request-to-join",
		path:    "/groups/" + p(groupID) + "/request-to-join",
		out:     &el,
		keys:    []string{"data"},
	})
	if err != nil {
		return nil, err
	}
	return &el, nil
}

// RequestToJoin files a join request as the signed-in user.
func (c *Client) RequestToJoin(ctx context.Context, groupID string, in group.JoinRequestInput) (*group.JoinRequest, error) {
	var jr group.JoinRequest
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/groups/{id}/request-to-join",
		path:    "/groups/" + p(groupID) + "/request-to-join",
		body:    in,
		out:     &jr,
		keys:    itemKeys("join_request"),
	})
	if err != nil {
		return nil, err
	}
	return &jr, nil
}

// GetJoinLink resolves a shareable join token. No sign-in required.
func (c *Client) GetJoinLink(ctx context.Context, token string) (*group.JoinLink, error) {
	var link group.JoinLink
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodGet,
		route:   "/join/{token}",
		path:    "/join/" + p(token),
		out:     &link,
		keys:    []string{"data"},
	})
	if err != nil {
		return nil, invalidLink(err)
	}
	if link.Token == "" {
		link.Token = token
	}
	return &link, nil
}

// SubmitJoinLink files a join request through a shareable token.
func (c *Client) SubmitJoinLink(ctx context.Context, token string, in group.JoinLinkInput) (*group.JoinRequest, error) {
	var jr group.JoinRequest
	err := c.do(ctx, call{
		service: serviceGroups,
		method:  http.MethodPost,
		route:   "/join/{token}",
		path:    "/join/" + p(token),
		body:    in,
		out:     &jr,
		keys:    itemKeys("join_request"),
	})
	if err != nil {
		return nil, invalidLink(err)
	}
	return &jr, nil
}
