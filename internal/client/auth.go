package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// GetSession fetches the raw session payload. A 401 comes back as an
// *APIError rather than a login redirect; callers decide what anonymous means.
func (c *Client) GetSession(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		service:          serviceAuth,
		method:           http.MethodGet,
		route:            "/session",
		path:             "/session",
		out:              &raw,
		passUnauthorized: true,
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// LoginURL returns the auth service's login page with referrer as the
// post-login return target.
func (c *Client) LoginURL(referrer string) string {
	u := c.authBase + "/login"
	if referrer == "" {
		return u
	}
	return u + "?" + url.Values{"referrer": {referrer}}.Encode()
}

// Logout ends the session and returns the URL the browser should visit next.
// A 3xx reply's Location wins, then a logout URL in a JSON body. An empty
// string means the service gave no target.
func (c *Client) Logout(ctx context.Context, redirect string) (string, error) {
	q := url.Values{}
	if redirect != "" {
		q.Set("redirect", redirect)
	}

	cl := call{
		service:          serviceAuth,
		method:           http.MethodGet,
		route:            "/logout",
		path:             "/logout",
		query:            q,
		passUnauthorized: true,
		noFollow:         true,
	}
	resp, err := c.send(ctx, cl)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// Already signed out.
	if resp.StatusCode == http.StatusUnauthorized {
		return "", nil
	}
	if err := c.intercept(ctx, resp, true); err != nil {
		return "", err
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", nil
		}
		return c.resolveAuthURL(loc), nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return "", nil
	}
	var body map[string]json.RawMessage
	if err := decodeInto(data, &body, "data"); err != nil {
		return "", nil
	}
	for _, key := range []string{"logout_url", "url", "redirect"} {
		if s := rawString(body[key]); s != "" {
			return c.resolveAuthURL(s), nil
		}
	}
	return "", nil
}

// resolveAuthURL makes a relative Location absolute against the auth base.
func (c *Client) resolveAuthURL(ref string) string {
	base, err := url.Parse(c.authBase + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
