package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves the groups and auth backends under /api and /auth and
// records every call it receives.
type fakeAPI struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer tok-alice" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "sign in"})
		return
	}

	switch call {
	case "GET /auth/session":
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "u-alice", "email": "alice@example.com", "name": "Alice",
			"memberships": []map[string]any{{"group_id": "g1", "user_id": "u-alice", "role": "administrator"}},
		})
	case "GET /api/groups":
		writeJSON(w, http.StatusOK, map[string]any{"groups": []map[string]any{
			{"id": "g1", "name": "Hikers", "visibility": "public", "member_count": 2, "current_user_role": "administrator"},
		}})
	case "DELETE /api/groups/g1":
		w.WriteHeader(http.StatusNoContent)
	case "POST /api/groups/g1/members":
		writeJSON(w, http.StatusConflict, map[string]any{"message": "User is already a member"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
	}
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// run executes the CLI with a clean environment and returns stdout.
func run(t *testing.T, f *fakeAPI, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GROUPDESK_CLI_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("GROUPDESK_TOKEN", "")
	t.Setenv("GROUPDESK_OUTPUT", "")
	t.Setenv("GROUPDESK_BACKEND_URL", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	if f != nil {
		args = append([]string{"--backend", f.srv.URL}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "groupdesk v"+version+"\n", out)
}

func TestGroupsListJSONByDefault(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "", "--token", "tok-alice", "groups", "list")
	require.NoError(t, err)

	var groups []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &groups), "non-terminal output should be JSON")
	require.Len(t, groups, 1)
	assert.Equal(t, "Hikers", groups[0]["name"])
}

func TestGroupsListTable(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "", "--token", "tok-alice", "-o", "table", "groups", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "VISIBILITY")
	assert.Contains(t, lines[1], "Hikers")
	assert.Contains(t, lines[1], "Administrator")
}

func TestUnsupportedOutput(t *testing.T) {
	_, err := run(t, nil, "", "-o", "yaml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestUnauthorizedPointsAtLogin(t *testing.T) {
	f := newFakeAPI(t)
	_, err := run(t, f, "", "groups", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
	assert.Contains(t, err.Error(), f.srv.URL+"/auth/login")
}

func TestDeleteDeclinedMakesNoCall(t *testing.T) {
	f := newFakeAPI(t)
	_, err := run(t, f, "n\n", "--token", "tok-alice", "groups", "delete", "g1")
	require.NoError(t, err)
	assert.False(t, f.called("DELETE /api/groups/g1"), "declining must not reach the backend")
}

func TestDeleteConfirmed(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "yes\n", "--token", "tok-alice", "-o", "table", "groups", "delete", "g1")
	require.NoError(t, err)
	assert.True(t, f.called("DELETE /api/groups/g1"))
	assert.Contains(t, out, "Deleted group g1")
}

func TestDeleteWithYesFlag(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "", "--token", "tok-alice", "--yes", "groups", "delete", "g1")
	require.NoError(t, err)
	assert.True(t, f.called("DELETE /api/groups/g1"))
	assert.JSONEq(t, `{"deleted":"g1"}`, out)
}

func TestConfirmNeedsTerminal(t *testing.T) {
	f := newFakeAPI(t)
	t.Setenv("GROUPDESK_CLI_CONFIG", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("GROUPDESK_TOKEN", "tok-alice")
	t.Setenv("GROUPDESK_OUTPUT", "")
	t.Setenv("GROUPDESK_BACKEND_URL", "")

	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer stdin.Close()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(stdin)
	cmd.SetArgs([]string{"--backend", f.srv.URL, "members", "remove", "g1", "u-bob"})

	err = cmd.Execute()
	require.ErrorIs(t, err, errNotInteractive)
	assert.False(t, f.called("DELETE /api/groups/g1/members/u-bob"))
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	f := newFakeAPI(t)
	_, err := run(t, f, "", "--token", "tok-alice", "members", "set-role", "g1", "u-bob", "owner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Empty(t, f.calls)
}

func TestServerMessageSurfaces(t *testing.T) {
	f := newFakeAPI(t)
	_, err := run(t, f, "", "--token", "tok-alice", "members", "add", "g1", "--email", "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User is already a member")
}

func TestSessionShowsUser(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "", "--token", "tok-alice", "session")
	require.NoError(t, err)

	var view struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Email       string `json:"email"`
			Memberships []struct {
				GroupID string `json:"group_id"`
				Role    string `json:"role"`
			} `json:"memberships"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.Authenticated)
	assert.Equal(t, "alice@example.com", view.User.Email)
	require.Len(t, view.User.Memberships, 1)
	assert.Equal(t, "administrator", view.User.Memberships[0].Role)
}

func TestLoginURL(t *testing.T) {
	f := newFakeAPI(t)
	out, err := run(t, f, "", "-o", "table", "login-url", "--return", "https://app.example.com/groups")
	require.NoError(t, err)
	assert.Equal(t, f.srv.URL+"/auth/login?referrer=https%3A%2F%2Fapp.example.com%2Fgroups\n", out)
}

func TestJoinNeedsGroupOrLink(t *testing.T) {
	_, err := run(t, nil, "", "requests", "join")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either a group id or --link")
}

func TestProfileSuppliesTokenAndOutput(t *testing.T) {
	f := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "current-profile: work\nprofiles:\n  work:\n    backend: " + f.srv.URL + "\n    token: tok-alice\n    output: table\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("GROUPDESK_CLI_CONFIG", path)
	t.Setenv("GROUPDESK_TOKEN", "")
	t.Setenv("GROUPDESK_OUTPUT", "")
	t.Setenv("GROUPDESK_BACKEND_URL", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"groups", "list"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Hikers")
	assert.Contains(t, out.String(), "MEMBERS")
}

func TestUnknownProfile(t *testing.T) {
	_, err := run(t, nil, "", "--profile", "nope", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "nope"`)
}
