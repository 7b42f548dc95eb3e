package server

import "net/http"

type manifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	UIBase      string            `json:"ui_base"`
	Backends    map[string]string `json:"backends"`
	Endpoints   map[string]string `json:"endpoints"`
	Health      string            `json:"health"`
}

// wellKnownHandler describes this deployment: where the UI lives and which
// backends it talks to.
func wellKnownHandler(version, basePath, groupsURL, authURL string) http.HandlerFunc {
	m := manifest{
		Name:        "groupdesk",
		Description: "Front-end for group membership: groups, members, invitations and join requests",
		Version:     version,
		UIBase:      basePath,
		Backends: map[string]string{
			"groups": groupsURL,
			"auth":   authURL,
		},
		Endpoints: map[string]string{
			"metrics":         "/metrics",
			"metrics_summary": "/metrics/summary",
		},
		Health: "/health",
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m)
	}
}
