package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/groupdesk/internal/group"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Options{
		GroupsBaseURL: srv.URL + "/api",
		AuthBaseURL:   srv.URL + "/auth",
		Timeout:       5 * time.Second,
	})
	return c, srv
}

func TestUnauthorizedRedirectsToLogin(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"session expired"}`))
	}))

	current := "https://app.example.com/groups/g1?tab=members"
	ctx := WithReturnURL(context.Background(), current)

	groups, err := c.ListGroups(ctx, group.ListGroupsParams{})
	require.Error(t, err)
	assert.Nil(t, groups)

	ue, ok := AsUnauthorized(err)
	require.True(t, ok, "expected *UnauthorizedError, got %T", err)
	assert.True(t, IsUnauthorized(err))

	u, err := url.Parse(ue.LoginURL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/auth/login", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, current, u.Query().Get("referrer"))
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode string
	}{
		{"message field", 422, `{"message":"Name is required"}`, "Name is required", ""},
		{"error string", 409, `{"error":"Already a member"}`, "Already a member", ""},
		{"error object", 403, `{"error":{"code":"forbidden","message":"Managers only"}}`, "Managers only", "forbidden"},
		{"detail string", 400, `{"detail":"Invalid email"}`, "Invalid email", ""},
		{"detail list", 400, `{"detail":[{"msg":"email required"},{"msg":"role invalid"}]}`, "email required; role invalid", ""},
		{"message preferred over error", 400, `{"error":"bad","message":"Better"}`, "Better", ""},
		{"empty body", 500, ``, "Server error (500)", ""},
		{"non-json body", 502, `<html>bad gateway</html>`, "Server error (502)", ""},
		{"blank message", 503, `{"message":"  "}`, "Server error (503)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := c.GetGroup(context.Background(), "g1")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{GroupsBaseURL: base, AuthBaseURL: base, Timeout: time.Second})
	_, err := c.ListGroups(context.Background(), group.ListGroupsParams{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Equal(t, ConnectivityMessage, Message(err))
	assert.False(t, IsUnauthorized(err))
}

func TestCredentialsAttached(t *testing.T) {
	var gotAuth, gotCookie string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if ck, err := r.Cookie("sid"); err == nil {
			gotCookie = ck.Value
		}
		w.Write([]byte(`[]`))
	}))

	ctx := WithCredentials(context.Background(), Credentials{
		BearerToken: "opaque-token",
		Cookies:     []*http.Cookie{{Name: "sid", Value: "abc123"}},
	})
	_, err := c.ListGroups(ctx, group.ListGroupsParams{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque-token", gotAuth)
	assert.Equal(t, "abc123", gotCookie)

	t.Run("expired jwt is dropped", func(t *testing.T) {
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		gotAuth = ""
		ctx := WithCredentials(context.Background(), Credentials{BearerToken: expired})
		_, err = c.ListGroups(ctx, group.ListGroupsParams{})
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})

	t.Run("live jwt is sent", func(t *testing.T) {
		live, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "u1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		ctx := WithCredentials(context.Background(), Credentials{BearerToken: live})
		_, err = c.ListGroups(ctx, group.ListGroupsParams{})
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+live, gotAuth)
	})
}

func TestListGroupsEnvelopes(t *testing.T) {
	bodies := map[string]string{
		"bare":      `[{"id":"g1","name":"One","visibility":"public"}]`,
		"data":      `{"data":[{"id":"g1","name":"One","visibility":"public"}]}`,
		"named key": `{"groups":[{"id":"g1","name":"One","visibility":"public"}],"total":1}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var gotQuery url.Values
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query()
				io.WriteString(w, body)
			}))

			groups, err := c.ListGroups(context.Background(), group.ListGroupsParams{Visibility: group.VisibilityPublic})
			require.NoError(t, err)
			require.Len(t, groups, 1)
			assert.Equal(t, "g1", groups[0].ID)
			assert.True(t, groups[0].IsPublic())
			assert.Equal(t, "public", gotQuery.Get("visibility"))
		})
	}
}

func TestCreateGroupPayload(t *testing.T) {
	var got map[string]any
	var raw string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/groups", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		raw = string(data)
		json.Unmarshal(data, &got)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"g9","name":"Book club","visibility":"private"}}`)
	}))

	g, err := c.CreateGroup(context.Background(), group.NewCreateGroupInput("Book club", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "g9", g.ID)

	assert.Equal(t, "private", got["visibility"])
	_, hasDescription := got["description"]
	assert.False(t, hasDescription, "description must be omitted, got %s", raw)
	assert.NotContains(t, raw, "null")
}

// joinRequestBackend is an in-memory groups service for the join-request flow.
type joinRequestBackend struct {
	mu   sync.Mutex
	reqs map[string]*group.JoinRequest
}

func (b *joinRequestBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/groups/g1/join-requests":
		status := r.URL.Query().Get("status")
		out := []group.JoinRequest{}
		for _, jr := range b.reqs {
			if status == "" || string(jr.Status) == status {
				out = append(out, *jr)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"join_requests": out})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/approve"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/groups/g1/join-requests/"), "/approve")
		jr, ok := b.reqs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if jr.Status != group.JoinRequestPending {
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, `{"error":"Request already reviewed"}`)
			return
		}
		jr.Status = group.JoinRequestApproved
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestApproveThenRefetchDropsPending(t *testing.T) {
	backend := &joinRequestBackend{reqs: map[string]*group.JoinRequest{
		"r1": {ID: "r1", GroupID: "g1", Status: group.JoinRequestPending},
		"r2": {ID: "r2", GroupID: "g1", Status: group.JoinRequestPending},
	}}
	c, _ := newTestClient(t, backend)
	ctx := context.Background()

	pending, err := c.ListJoinRequests(ctx, "g1", group.JoinRequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, c.ApproveJoinRequest(ctx, "g1", "r1", group.ReviewInput{}))

	pending, err = c.ListJoinRequests(ctx, "g1", group.JoinRequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r2", pending[0].ID)

	err = c.ApproveJoinRequest(ctx, "g1", "r1", group.ReviewInput{})
	require.Error(t, err)
	assert.Equal(t, "Request already reviewed", Message(err))
}

func TestTokenLookupNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"invitation not found"}`)
	}))

	_, err := c.GetInvitation(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOrExpired))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, InvalidLinkMessage, Message(err))

	_, err = c.GetJoinLink(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidOrExpired)

	_, err = c.GetGroup(context.Background(), "g1")
	assert.Equal(t, "invitation not found", Message(err))
}

func TestGetSession(t *testing.T) {
	t.Run("401 is not a redirect", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		_, err := c.GetSession(context.Background())
		require.Error(t, err)
		assert.False(t, IsUnauthorized(err))
		assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	})

	t.Run("returns raw payload", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/session", r.URL.Path)
			io.WriteString(w, `{"client":{"id":"u1"}}`)
		}))
		raw, err := c.GetSession(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"client":{"id":"u1"}}`, string(raw))
	})
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "follows redirect location",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "https://app.example.com/", r.URL.Query().Get("redirect"))
				http.Redirect(w, r, "https://sso.example.com/logout", http.StatusFound)
			},
			want: "https://sso.example.com/logout",
		},
		{
			name: "uses json logout url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"logout_url":"https://sso.example.com/end"}`)
			},
			want: "https://sso.example.com/end",
		},
		{
			name: "no target",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			want: "",
		},
		{
			name: "already signed out",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			got, err := c.Logout(context.Background(), "https://app.example.com/")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("relative location", func(t *testing.T) {
		c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "signed-out")
			w.WriteHeader(http.StatusSeeOther)
		}))
		got, err := c.Logout(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/auth/signed-out", got)
	})
}

func TestLoginURL(t *testing.T) {
	c := New(Options{AuthBaseURL: "https://auth.example.com/"})
	assert.Equal(t, "https://auth.example.com/login", c.LoginURL(""))
	assert.Equal(t, "https://auth.example.com/login?referrer=https%3A%2F%2Fapp.example.com%2Fgroups", c.LoginURL("https://app.example.com/groups"))
}

type countingMetrics struct {
	requests     int
	errors       []string
	unauthorized int
	lastStatus   int
}

func (m *countingMetrics) IncUpstreamRequests(_, _, _ string, status int) {
	m.requests++
	m.lastStatus = status
}
func (m *countingMetrics) ObserveUpstreamDuration(_, _ string, _ float64) {}
func (m *countingMetrics) IncUpstreamError(errorType, _ string)          { m.errors = append(m.errors, errorType) }
func (m *countingMetrics) IncUnauthorizedRedirect()                      { m.unauthorized++ }

func TestMetricsRecorded(t *testing.T) {
	rec := &countingMetrics{}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	c.SetMetrics(rec)

	err := c.DeleteGroup(context.Background(), "g1")
	require.Error(t, err)
	assert.Equal(t, 1, rec.requests)
	assert.Equal(t, http.StatusUnauthorized, rec.lastStatus)
	assert.Equal(t, 1, rec.unauthorized)
	assert.Empty(t, rec.errors)
}
