package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alecgard/groupdesk/internal/client"
	"github.com/alecgard/groupdesk/internal/crypto"
)

const testCSRF = "test-csrf-token"

// fakeBackend stands in for both the groups and auth services and records
// every call it receives.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu    sync.Mutex
	calls []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	f := &fakeBackend{t: t}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBackend) called(method, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == method+" "+path {
			return true
		}
	}
	return false
}

// writes returns every recorded call that was not a GET.
func (f *fakeBackend) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if !strings.HasPrefix(c, http.MethodGet+" ") {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	past := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	hikers := map[string]any{"id": "g1", "name": "Hikers", "visibility": "public", "member_count": 2}

	switch r.Method + " " + r.URL.Path {
	case "GET /auth/session":
		switch sessionCookie(r) {
		case "alice":
			writeTestJSON(w, http.StatusOK, map[string]any{"client": map[string]any{
				"id": "u-alice", "email": "alice@example.com", "display_name": "Alice", "verified": true,
				"memberships": []map[string]any{{"group_id": "g1", "user_id": "u-alice", "role": "administrator"}},
			}})
		case "bob":
			writeTestJSON(w, http.StatusOK, map[string]any{
				"id": "u-bob", "email": "bob@example.com", "name": "Bob",
				"memberships": []map[string]any{{"group_id": "g1", "user_id": "u-bob", "role": "member"}},
			})
		case "revoked":
			writeTestJSON(w, http.StatusUnauthorized, map[string]any{"message": "session revoked"})
		default:
			writeTestJSON(w, http.StatusNotFound, map[string]any{"message": "no session"})
		}
	case "GET /api/groups":
		writeTestJSON(w, http.StatusOK, map[string]any{"groups": []any{hikers}})
	case "GET /api/groups/g1":
		writeTestJSON(w, http.StatusOK, hikers)
	case "GET /api/groups/g1/members":
		writeTestJSON(w, http.StatusOK, []map[string]any{
			{"group_id": "g1", "user_id": "u-alice", "email": "alice@example.com", "role": "administrator"},
			{"group_id": "g1", "user_id": "u-bob", "email": "bob@example.com", "role": "member"},
		})
	case "GET /api/groups/g1/invitations":
		writeTestJSON(w, http.StatusOK, []map[string]any{
			{"id": "inv-old", "group_id": "g1", "email": "old@example.com", "role": "member", "status": "pending", "expires_at": past},
			{"id": "inv-live", "group_id": "g1", "email": "new@example.com", "role": "member", "status": "pending", "expires_at": future, "token": "tok-live"},
		})
	case "GET /api/groups/g1/join-requests":
		writeTestJSON(w, http.StatusOK, []map[string]any{
			{"id": "jr-1", "group_id": "g1", "requester_email": "carol@example.com", "status": "pending", "created_at": past},
		})
	case "DELETE /api/groups/g1":
		w.WriteHeader(http.StatusNoContent)
	case "POST /api/groups/g1/members":
		writeTestJSON(w, http.StatusConflict, map[string]any{"message": "User is already a member"})
	case "GET /api/groups/g2":
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"message": "token expired"})
	case "GET /api/groups/g3":
		writeTestJSON(w, http.StatusOK, map[string]any{"id": "g3", "name": "Broken", "visibility": "private"})
	case "GET /api/groups/g3/members":
		writeTestJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]any{"code": "db", "message": "database down"}})
	case "GET /api/invitations/tok-old":
		writeTestJSON(w, http.StatusOK, map[string]any{
			"id": "inv-old", "group_id": "g1", "group_name": "Hikers", "email": "old@example.com", "role": "member", "status": "pending", "expires_at": past,
		})
	case "GET /api/invitations/my":
		writeTestJSON(w, http.StatusOK, []map[string]any{
			{"id": "inv-odd", "group_id": "g1", "group_name": "Hikers", "email": "alice@example.com", "role": "member", "status": "pending", "expires_at": future, "token": "tok/1?x#y"},
		})
	case "GET /api/join-requests/my":
		writeTestJSON(w, http.StatusOK, []any{})
	default:
		writeTestJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
	}
}

func sessionCookie(r *http.Request) string {
	c, err := r.Cookie("session")
	if err != nil {
		return ""
	}
	return c.Value
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestHandler(t *testing.T, f *fakeBackend) http.Handler {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSealer(key)
	require.NoError(t, err)

	h := NewHandler(Options{
		Client: client.New(client.Options{
			GroupsBaseURL: f.srv.URL + "/api",
			AuthBaseURL:   f.srv.URL + "/auth",
		}),
		Sealer:         sealer,
		BasePath:       "/",
		ForwardCookies: []string{"session"},
	})
	return h.Routes()
}

// send issues a request as user ("" for anonymous) carrying a valid CSRF
// cookie and token plus any extra cookies.
func send(t *testing.T, h http.Handler, method, target, user string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if method == http.MethodPost {
		if form == nil {
			form = url.Values{}
		}
		form.Set("csrf_token", testCSRF)
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRF})
	if user != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: user})
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestDestructiveActionsWithoutConfirmationMakeNoCall(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g1/delete", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirm"`)

	rec = send(t, h, http.MethodPost, "/groups/g1/delete", "alice", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/groups/g1", rec.Header().Get("Location"))

	rec = send(t, h, http.MethodPost, "/groups/g1/members/u-bob/remove", "alice", url.Values{"confirm": {"no"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	assert.False(t, f.called(http.MethodDelete, "/api/groups/g1"))
	assert.False(t, f.called(http.MethodDelete, "/api/groups/g1/members/u-bob"))
}

func TestCancelledRevokeAndDenyMakeNoCall(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g1/invitations/inv-live/revoke", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirm"`)

	rec = send(t, h, http.MethodPost, "/groups/g1/invitations/inv-live/revoke", "alice", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/groups/g1?tab=invitations", rec.Header().Get("Location"))

	rec = send(t, h, http.MethodGet, "/groups/g1/join-requests/jr-1/deny", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirm"`)

	rec = send(t, h, http.MethodPost, "/groups/g1/join-requests/jr-1/deny", "alice", url.Values{"confirm": {"no"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/groups/g1?tab=requests", rec.Header().Get("Location"))

	assert.Empty(t, f.writes())

	rec = send(t, h, http.MethodGet, "/groups/g1?tab=invitations", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/groups/g1/invitations/inv-live/revoke")
}

func TestConfirmedDeleteCallsBackendAndShowsToast(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodPost, "/groups/g1/delete", "alice", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/groups", rec.Header().Get("Location"))
	assert.True(t, f.called(http.MethodDelete, "/api/groups/g1"))

	toast := responseCookie(rec, flashCookieName)
	require.NotNil(t, toast)

	rec = send(t, h, http.MethodGet, "/groups", "alice", nil, toast)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Group deleted.")
	cleared := responseCookie(rec, flashCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestFailedActionShowsServerMessage(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodPost, "/groups/g1/members", "alice", url.Values{"email": {"bob@example.com"}, "role": {"member"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/groups/g1", rec.Header().Get("Location"))

	toast := responseCookie(rec, flashCookieName)
	require.NotNil(t, toast)
	rec = send(t, h, http.MethodGet, "/groups/g1", "alice", nil, toast)
	assert.Contains(t, rec.Body.String(), "User is already a member")
}

func TestInvalidRoleIsRejectedWithoutCall(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodPost, "/groups/g1/invitations", "alice", url.Values{"email": {"x@example.com"}, "role": {"owner"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, f.called(http.MethodPost, "/api/groups/g1/invitations"))
}

func TestExpiredInvitationRendersExpiredWithoutActions(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g1?tab=invitations", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, ">expired<")
	assert.Contains(t, body, "/groups/g1/invitations/inv-live/revoke")
	assert.NotContains(t, body, "/groups/g1/invitations/inv-old/revoke")

	rec = send(t, h, http.MethodGet, "/invitations/tok-old", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "This invitation has expired.")
	assert.NotContains(t, rec.Body.String(), "/invitations/tok-old/accept")
}

func TestCapabilityGating(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g1", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "/groups/g1/delete")
	assert.NotContains(t, body, "/remove")
	assert.NotContains(t, body, "?tab=invitations")
	assert.False(t, f.called(http.MethodGet, "/api/groups/g1/invitations"))
	assert.False(t, f.called(http.MethodGet, "/api/groups/g1/join-requests"))

	rec = send(t, h, http.MethodGet, "/groups/g1", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "/groups/g1/delete")
	assert.Contains(t, body, "/groups/g1/members/u-bob/remove")
	assert.NotContains(t, body, "/groups/g1/members/u-alice/remove")
	assert.Contains(t, body, "?tab=requests")
	assert.True(t, f.called(http.MethodGet, "/api/groups/g1/join-requests"))
}

func TestUnauthorizedRedirectsToLoginWithReferrer(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g2", "alice", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, "http://example.com/groups/g2", loc.Query().Get("referrer"))
}

func TestRejectedSessionSendsUserToLogin(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups", "revoked", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, "http://example.com/groups", loc.Query().Get("referrer"))

	cleared := responseCookie(rec, tokenCookieName)
	require.NotNil(t, cleared, "a rejected token should be dropped")
	assert.Less(t, cleared.MaxAge, 0)
	assert.False(t, f.called(http.MethodGet, "/api/groups"))

	rec = send(t, h, http.MethodGet, "/invitations/tok-old", "revoked", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign in")
	assert.NotContains(t, rec.Body.String(), "Session unavailable")
}

func TestBackendTokensAreEscapedInLinks(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/invitations", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `/invitations/tok%2F1%3Fx%23y/accept`)
	assert.NotContains(t, body, `/invitations/tok/1?x#y/accept`)
}

func TestAnonymousCallerIsSentToLogin(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/invitations", "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/auth/login?referrer=")
	assert.False(t, f.called(http.MethodGet, "/api/invitations/my"))
}

func TestFailedReadSkipsDependentReads(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/groups/g3", "alice", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "database down")
	assert.False(t, f.called(http.MethodGet, "/api/groups/g3/invitations"))
}

func TestInvalidInvitationLink(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/invitations/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), client.InvalidLinkMessage)
}

func TestCSRFRejectionHappensBeforeBackend(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	req := httptest.NewRequest(http.MethodPost, "/groups/g1/delete", strings.NewReader("confirm=yes"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "session", Value: "alice"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.callCount())
}

func TestStaticStylesheet(t *testing.T) {
	f := newFakeBackend(t)
	h := newTestHandler(t, f)

	rec := send(t, h, http.MethodGet, "/static/app.css", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".app-shell")
	assert.Zero(t, f.callCount())
}
